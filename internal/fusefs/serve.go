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
	"errors"
	"io"
	"syscall"

	"bazil.org/fuse"

	"blockfs/internal/common"
	"blockfs/internal/store"
)

// Serve reads kernel requests from conn and answers them one at a time
// until the connection is closed by unmount. Strictly sequential: the next
// request is not read until the current one has been answered.
func (s *Session) Serve(conn *fuse.Conn) error {
	for {
		req, err := conn.ReadRequest()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		s.handle(req)
	}
}

func (s *Session) handle(req fuse.Request) {
	switch r := req.(type) {
	case *fuse.StatfsRequest:
		r.Respond(&fuse.StatfsResponse{
			Bsize:   512,
			Namelen: 255,
		})

	case *fuse.GetattrRequest:
		attr, err := s.GetAttr(uint64(r.Node))
		if err != nil {
			r.RespondError(errnoOf(err))
			return
		}
		r.Respond(&fuse.GetattrResponse{Attr: attr})

	case *fuse.SetattrRequest:
		var size *uint64
		if r.Valid.Size() {
			size = &r.Size
		}
		attr, err := s.SetAttr(uint64(r.Node), size)
		if err != nil {
			r.RespondError(errnoOf(err))
			return
		}
		r.Respond(&fuse.SetattrResponse{Attr: attr})

	case *fuse.LookupRequest:
		ent, err := s.Lookup(uint64(r.Node), r.Name)
		if err != nil {
			r.RespondError(errnoOf(err))
			return
		}
		r.Respond(&fuse.LookupResponse{
			Node: fuse.NodeID(ent.StartBlock),
			Attr: entityAttr(ent, s.store.BlockSize()),
		})

	case *fuse.MkdirRequest:
		ent, err := s.MkDir(uint64(r.Node), r.Name)
		if err != nil {
			r.RespondError(errnoOf(err))
			return
		}
		r.Respond(&fuse.MkdirResponse{
			LookupResponse: fuse.LookupResponse{
				Node: fuse.NodeID(ent.StartBlock),
				Attr: entityAttr(ent, s.store.BlockSize()),
			},
		})

	case *fuse.CreateRequest:
		ent, fh, err := s.Create(uint64(r.Node), r.Name)
		if err != nil {
			r.RespondError(errnoOf(err))
			return
		}
		r.Respond(&fuse.CreateResponse{
			LookupResponse: fuse.LookupResponse{
				Node: fuse.NodeID(ent.StartBlock),
				Attr: entityAttr(ent, s.store.BlockSize()),
			},
			OpenResponse: fuse.OpenResponse{
				Handle: fuse.HandleID(fh),
				Flags:  fuse.OpenResponseFlags(r.Flags),
			},
		})

	case *fuse.RemoveRequest:
		if r.Dir {
			r.RespondError(fuse.ENOSYS)
			return
		}
		if err := s.Unlink(uint64(r.Node), r.Name); err != nil {
			r.RespondError(errnoOf(err))
			return
		}
		r.Respond()

	case *fuse.OpenRequest:
		var (
			fh  uint64
			err error
		)
		if r.Dir {
			fh, err = s.OpenDir(uint64(r.Node))
		} else {
			fh, err = s.Open(uint64(r.Node), r.Flags&fuse.OpenTruncate != 0)
		}
		if err != nil {
			r.RespondError(errnoOf(err))
			return
		}
		r.Respond(&fuse.OpenResponse{
			Handle: fuse.HandleID(fh),
			Flags:  fuse.OpenResponseFlags(r.Flags),
		})

	case *fuse.ReadRequest:
		if r.Dir {
			ents, err := s.ReadDir(uint64(r.Node), uint64(r.Handle))
			if err != nil {
				r.RespondError(errnoOf(err))
				return
			}
			r.Respond(&fuse.ReadResponse{Data: direntData(ents, r.Size)})
			return
		}
		data, err := s.Read(uint64(r.Node), uint64(r.Handle), r.Offset, r.Size)
		if err != nil {
			r.RespondError(errnoOf(err))
			return
		}
		r.Respond(&fuse.ReadResponse{Data: data})

	case *fuse.WriteRequest:
		n, err := s.Write(uint64(r.Node), uint64(r.Handle), r.Offset, r.Data)
		if err != nil {
			r.RespondError(errnoOf(err))
			return
		}
		r.Respond(&fuse.WriteResponse{Size: n})

	case *fuse.ReleaseRequest:
		if !r.Dir {
			s.Release(uint64(r.Handle))
		}
		r.Respond()

	case *fuse.AccessRequest:
		if err := s.Access(uint64(r.Node)); err != nil {
			r.RespondError(errnoOf(err))
			return
		}
		r.Respond()

	case *fuse.FlushRequest:
		r.Respond()

	case *fuse.FsyncRequest:
		r.Respond()

	case *fuse.ForgetRequest:
		r.Respond()

	case *fuse.InterruptRequest:
		r.Respond()

	case *fuse.DestroyRequest:
		r.Respond()

	default:
		// symlink, link, rename, rmdir, xattr, locking: not part of this
		// filesystem.
		req.RespondError(fuse.ENOSYS)
	}
}

// errnoOf translates store and session errors to FUSE errnos in one place.
func errnoOf(err error) fuse.Errno {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return fuse.ENOENT
	case errors.Is(err, common.ErrNoParent):
		return fuse.EIO
	case errors.Is(err, common.ErrNotSupported):
		return fuse.ENOSYS
	case errors.Is(err, common.ErrInvalidArgument), errors.Is(err, common.ErrInvalidName):
		return fuse.Errno(syscall.EINVAL)
	case errors.Is(err, common.ErrExists):
		return fuse.EEXIST
	case errors.Is(err, common.ErrNotDir):
		return fuse.Errno(syscall.ENOTDIR)
	case errors.Is(err, common.ErrIsDir):
		return fuse.Errno(syscall.EISDIR)
	case errors.Is(err, common.ErrNoSpace):
		return fuse.Errno(syscall.ENOSPC)
	default:
		return fuse.EIO
	}
}

// direntData encodes a directory listing into the kernel's wire format,
// stopping before the response would exceed max bytes.
func direntData(ents []store.Entity, max int) []byte {
	var data []byte
	for _, ent := range ents {
		typ := fuse.DT_File
		if ent.IsDir() {
			typ = fuse.DT_Dir
		}
		next := fuse.AppendDirent(data, fuse.Dirent{
			Inode: ent.StartBlock,
			Type:  typ,
			Name:  ent.Name,
		})
		if len(next) > max {
			break
		}
		data = next
	}
	return data
}
