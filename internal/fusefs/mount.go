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

package fusefs

import (
	"context"
	"fmt"
	"os"

	"bazil.org/fuse"
	log "github.com/sirupsen/logrus"

	"blockfs/internal/device"
	"blockfs/internal/store"
	"blockfs/internal/util"
)

// MountOptions configure a mount session.
type MountOptions struct {
	// Image is the path of the blockfs image file.
	Image string
	// Mountpoint is created before mounting and removed after unmount.
	Mountpoint string
	// FSName is reported to the kernel. Defaults to the image path.
	FSName string
	// ReadOnly mounts the filesystem read-only at the kernel level.
	ReadOnly bool
	// Trace forwards the FUSE library's debug output to the logger.
	Trace bool
}

// Mount opens the image, mounts it at the mountpoint, and serves requests
// until the filesystem is unmounted. Blocks for the lifetime of the mount.
func Mount(opts MountOptions) error {
	dev, err := device.OpenFile(opts.Image)
	if err != nil {
		return err
	}
	defer dev.Close()

	st, err := store.Open(dev)
	if err != nil {
		return fmt.Errorf("failed to open image %s: %w", opts.Image, err)
	}

	if err := os.Mkdir(opts.Mountpoint, 0o755); err != nil && !os.IsExist(err) {
		return fmt.Errorf("failed to create mountpoint: %w", err)
	}
	defer os.Remove(opts.Mountpoint)

	if opts.Trace {
		fuse.Debug = func(msg interface{}) {
			log.Trace(msg)
		}
	}

	fsName := opts.FSName
	if fsName == "" {
		fsName = opts.Image
	}
	mountOpts := []fuse.MountOption{
		fuse.FSName(fsName),
		fuse.Subtype("blockfs"),
	}
	if opts.ReadOnly {
		mountOpts = append(mountOpts, fuse.ReadOnly())
	}

	conn, err := fuse.Mount(opts.Mountpoint, mountOpts...)
	if err != nil {
		return fmt.Errorf("failed to mount %s: %w", opts.Mountpoint, err)
	}
	defer conn.Close()

	session := NewSession(st)
	session.log.WithFields(map[string]interface{}{
		"image":      opts.Image,
		"mountpoint": opts.Mountpoint,
	}).Info("filesystem mounted")

	err = session.Serve(conn)

	session.log.WithField("mountpoint", opts.Mountpoint).Info("filesystem unmounted")
	return err
}

// Unmount detaches the filesystem at mountPoint, retrying while the
// kernel still reports it busy.
func Unmount(ctx context.Context, mountPoint string) error {
	return util.Retry(ctx, func() error {
		return fuse.Unmount(mountPoint)
	}, util.UnmountRetryOptions(ctx)...)
}
