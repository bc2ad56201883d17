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
package uf2ota

import (
	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/libretiny-eu/ltchiptool/common/uf2"
)

// Feed checks a block and processes it: the first block of a session is
// parsed as the header, the following ones are written to flash. info, if
// not nil, receives the firmware description found in the tags.
func (ctx *Context) Feed(b *uf2.Block, info *Info) error {
	if err := ctx.Check(b); err != nil {
		return err
	}
	if ctx.seq == 0 {
		return ctx.ParseHeader(b, info)
	}
	return ctx.write(b, info)
}

// Write processes a block and writes its data to the target partition.
// Check should be called first.
func (ctx *Context) Write(b *uf2.Block) error {
	if ctx.seq == 0 {
		return ctx.ParseHeader(b, nil)
	}
	return ctx.write(b, nil)
}

func (ctx *Context) write(b *uf2.Block, info *Info) error {
	if err := ctx.parseBlock(b, info); err != nil {
		return err
	}
	// The patch view points into b and must not outlive this call.
	defer func() { ctx.binpatch = nil }()

	if b.NotMainFlash() || b.Len == 0 {
		return ErrIgnore
	}
	if !ctx.partSet {
		return ErrPartitionUnset
	}
	part, flash := ctx.part, ctx.flash
	if part == nil || flash == nil {
		// Not meant for this OTA scheme.
		return ErrIgnore
	}

	data := b.Data[:b.Len]
	if ctx.schemeBinpatch && len(ctx.binpatch) > 0 {
		if err := ctx.patch(data, ctx.binpatch); err != nil {
			return errors.Annotatef(err, "block %d: binpatch", b.Seq)
		}
	}

	if uint64(b.Addr)+uint64(b.Len) > uint64(part.Length) {
		glog.Errorf("block %d: 0x%x @ 0x%x exceeds partition %s", b.Seq, b.Len, b.Addr, part)
		return ErrWriteFailed
	}
	offset := part.Offset + b.Addr

	if !ctx.isErased(offset, b.Len) {
		erased, err := flash.Erase(offset, b.Len)
		if err != nil {
			glog.Errorf("%s: erase 0x%x @ 0x%x: %s", flash.Name(), b.Len, offset, err)
			return errors.Wrap(err, ErrEraseFailed)
		}
		ctx.erasedOffset = offset
		ctx.erasedLength = erased
	}

	n, err := flash.Write(offset, data)
	if err != nil {
		glog.Errorf("%s: write 0x%x @ 0x%x: %s", flash.Name(), b.Len, offset, err)
		return errors.Wrap(err, ErrWriteFailed)
	}
	if n != len(data) {
		glog.Errorf("%s: short write 0x%x @ 0x%x (0x%x)", flash.Name(), b.Len, offset, n)
		return ErrShortWrite
	}
	ctx.written += uint32(n)
	return nil
}
