//
// Copyright (c) 2014-2019 Cesanta Software Limited
// All rights reserved
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
//
package fal

import (
	"bytes"
	"os"

	"github.com/golang/glog"
	"github.com/juju/errors"
	flock "github.com/theckman/go-flock"

	"github.com/libretiny-eu/ltchiptool/common/multierror"
)

// FileFlash is a flash device backed by an image file. The image is locked
// for exclusive use until Close.
type FileFlash struct {
	name       string
	path       string
	size       uint32
	sectorSize uint32
	f          *os.File
	lock       *flock.Flock
}

// OpenFileFlash opens or creates the image at path. A missing or short image
// is extended to size with erased (0xFF) bytes.
func OpenFileFlash(name, path string, size, sectorSize uint32) (*FileFlash, error) {
	if sectorSize == 0 {
		sectorSize = 1
	}
	lock := flock.NewFlock(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Annotatef(err, "%s: failed to lock %s", name, path)
	}
	if !locked {
		return nil, errors.Errorf("%s: %s is in use", name, path)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		lock.Unlock()
		return nil, errors.Annotatef(err, "%s: failed to open %s", name, path)
	}
	ff := &FileFlash{
		name:       name,
		path:       path,
		size:       size,
		sectorSize: sectorSize,
		f:          f,
		lock:       lock,
	}
	if err := ff.extend(); err != nil {
		ff.Close()
		return nil, errors.Trace(err)
	}
	glog.V(1).Infof("%s: opened %s (size 0x%x)", name, path, size)
	return ff, nil
}

func (ff *FileFlash) extend() error {
	fi, err := ff.f.Stat()
	if err != nil {
		return errors.Trace(err)
	}
	if fi.Size() >= int64(ff.size) {
		return nil
	}
	pad := bytes.Repeat([]byte{0xff}, int(int64(ff.size)-fi.Size()))
	if _, err := ff.f.WriteAt(pad, fi.Size()); err != nil {
		return errors.Annotatef(err, "%s: failed to extend image", ff.name)
	}
	return nil
}

func (ff *FileFlash) Name() string { return ff.name }
func (ff *FileFlash) Size() uint32 { return ff.size }
func (ff *FileFlash) Path() string { return ff.path }

func (ff *FileFlash) Erase(offset, length uint32) (uint32, error) {
	start, size := sectorSpan(offset, length, ff.sectorSize)
	if err := checkRange(ff, start, size); err != nil {
		return 0, errors.Trace(err)
	}
	glog.V(3).Infof("%s: erase 0x%x @ 0x%x", ff.name, size, start)
	if _, err := ff.f.WriteAt(bytes.Repeat([]byte{0xff}, int(size)), int64(start)); err != nil {
		return 0, errors.Trace(err)
	}
	return start + size - offset, nil
}

func (ff *FileFlash) Write(offset uint32, data []byte) (int, error) {
	cur, err := ff.Read(offset, uint32(len(data)))
	if err != nil {
		return 0, errors.Trace(err)
	}
	for i, b := range data {
		cur[i] &= b
	}
	n, err := ff.f.WriteAt(cur, int64(offset))
	return n, errors.Trace(err)
}

func (ff *FileFlash) Read(offset, length uint32) ([]byte, error) {
	if err := checkRange(ff, offset, length); err != nil {
		return nil, errors.Trace(err)
	}
	buf := make([]byte, length)
	if _, err := ff.f.ReadAt(buf, int64(offset)); err != nil {
		return nil, errors.Trace(err)
	}
	return buf, nil
}

func (ff *FileFlash) Close() error {
	var errs error
	if ff.f != nil {
		errs = multierror.Append(errs, ff.f.Close())
		ff.f = nil
	}
	if ff.lock != nil {
		errs = multierror.Append(errs, ff.lock.Unlock())
		ff.lock = nil
	}
	return errs
}
