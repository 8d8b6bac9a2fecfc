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
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"blockfs/internal/fusefs"
)

var (
	mountReadOnly bool
	mountFSName   string
)

var mountCmd = &cobra.Command{
	Use:   "mount <image> <mount-point>",
	Short: "Mount a filesystem image",
	Long: `Mount a filesystem image at the given mount point and serve it in the
foreground until interrupted or unmounted.`,
	Args: cobra.ExactArgs(2),
	RunE: runMount,
}

func init() {
	mountCmd.Flags().BoolVar(&mountReadOnly, "read-only", false, "mount read-only")
	mountCmd.Flags().StringVar(&mountFSName, "fsname", "", "filesystem name reported to the kernel")
	rootCmd.AddCommand(mountCmd)
}

func runMount(cmd *cobra.Command, args []string) error {
	image, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	mountPoint, err := filepath.Abs(args[1])
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("shutting down")
		if err := fusefs.Unmount(context.Background(), mountPoint); err != nil {
			log.WithError(err).Error("failed to unmount")
		}
	}()

	return fusefs.Mount(fusefs.MountOptions{
		Image:      image,
		Mountpoint: mountPoint,
		FSName:     mountFSName,
		ReadOnly:   mountReadOnly,
		Trace:      flagTrace,
	})
}
