// Copyright 2026 Blockfs Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"blockfs/internal/device"
	"blockfs/internal/store"
)

var (
	mkfsSize      string
	mkfsBlockSize uint32
	mkfsForce     bool
)

var mkfsCmd = &cobra.Command{
	Use:   "mkfs <image>",
	Short: "Create and format a filesystem image",
	Args:  cobra.ExactArgs(1),
	RunE:  runMkfs,
}

func init() {
	mkfsCmd.Flags().StringVarP(&mkfsSize, "size", "s", "64M", "image size (K/M/G suffixes accepted)")
	mkfsCmd.Flags().Uint32Var(&mkfsBlockSize, "block-size", store.DefaultBlockSize, "block size in bytes")
	mkfsCmd.Flags().BoolVarP(&mkfsForce, "force", "f", false, "overwrite an existing image")
	rootCmd.AddCommand(mkfsCmd)
}

func runMkfs(cmd *cobra.Command, args []string) error {
	size, err := parseSize(mkfsSize)
	if err != nil {
		return err
	}

	dev, err := device.CreateFile(args[0], size, mkfsForce)
	if err != nil {
		return err
	}
	defer dev.Close()

	st, err := store.Mkfs(dev, store.MkfsOptions{BlockSize: mkfsBlockSize})
	if err != nil {
		return fmt.Errorf("failed to format %s: %w", args[0], err)
	}

	stats, err := st.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Created %s: %d blocks of %d bytes (%d free)\n",
		args[0], stats.TotalBlocks, stats.BlockSize, stats.FreeBlocks)
	return nil
}

// parseSize parses a byte count with an optional K, M, or G suffix.
func parseSize(s string) (int64, error) {
	mult := int64(1)
	num := strings.TrimSpace(s)
	switch {
	case strings.HasSuffix(num, "K"), strings.HasSuffix(num, "k"):
		mult = 1 << 10
		num = num[:len(num)-1]
	case strings.HasSuffix(num, "M"), strings.HasSuffix(num, "m"):
		mult = 1 << 20
		num = num[:len(num)-1]
	case strings.HasSuffix(num, "G"), strings.HasSuffix(num, "g"):
		mult = 1 << 30
		num = num[:len(num)-1]
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}
