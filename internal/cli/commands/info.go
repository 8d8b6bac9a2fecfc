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

	"github.com/spf13/cobra"

	"blockfs/internal/device"
	"blockfs/internal/store"
)

var infoCmd = &cobra.Command{
	Use:   "info <image>",
	Short: "Show filesystem image details",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	dev, err := device.OpenFileReadOnly(args[0])
	if err != nil {
		return err
	}
	defer dev.Close()

	st, err := store.Open(dev)
	if err != nil {
		return fmt.Errorf("failed to open image %s: %w", args[0], err)
	}
	stats, err := st.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("Image:        %s\n", args[0])
	fmt.Printf("Block size:   %d bytes\n", stats.BlockSize)
	fmt.Printf("Total blocks: %d\n", stats.TotalBlocks)
	fmt.Printf("Free blocks:  %d\n", stats.FreeBlocks)
	fmt.Printf("Table blocks: %d\n", stats.TableBlocks)
	fmt.Printf("Root block:   %d\n", stats.RootBlock)
	return nil
}
