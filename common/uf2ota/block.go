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

	"github.com/libretiny-eu/ltchiptool/common/fal"
	"github.com/libretiny-eu/ltchiptool/common/uf2"
)

// maxTaggedData is the largest payload of a block carrying tags: at least one
// minimal tag and the terminator must fit after it.
const maxTaggedData = uf2.DataSize - 4 - 4

// Check verifies block magic numbers and family ID. ErrIgnore is returned for
// file container blocks.
func (ctx *Context) Check(b *uf2.Block) error {
	if !b.ValidMagic() {
		return ErrInvalidMagic
	}
	if b.FileContainer() {
		return ErrIgnore
	}
	if fid, ok := b.FamilyID(); !ok || fid != ctx.familyID {
		return ErrFamilyMismatch
	}
	return nil
}

// ParseHeader processes the first block of a package, which must carry tags
// and no data. info, if not nil, receives the firmware description.
// Check should be called first.
func (ctx *Context) ParseHeader(b *uf2.Block, info *Info) error {
	if !b.HasTags() || b.FileContainer() || b.Len != 0 {
		return ErrNotAHeader
	}
	if err := ctx.parseBlock(b, info); err != nil {
		return err
	}
	if !ctx.formatOK {
		return ErrUnsupportedFormatVersion
	}
	return nil
}

// parseBlock checks the sequence number and processes the block's tags.
// Effects of tags preceding a failing one are kept.
func (ctx *Context) parseBlock(b *uf2.Block, info *Info) error {
	if b.Seq != ctx.seq {
		glog.V(2).Infof("block %d: expected sequence %d", b.Seq, ctx.seq)
		return ErrSequenceMismatch
	}
	ctx.seq++
	ctx.binpatch = nil

	if b.Len > uf2.DataSize {
		return ErrDataTooLong
	}
	glog.V(2).Infof("block %d: %d @ 0x%x, flags %s", b.Seq, b.Len, b.Addr, b.Flags)
	if !b.HasTags() {
		return nil
	}
	if b.Len > maxTaggedData {
		return ErrDataTooLong
	}
	return uf2.ScanTags(b.TagRegion(), func(t uf2.TagType, data []byte) error {
		return ctx.handleTag(t, data, info)
	})
}

func (ctx *Context) handleTag(t uf2.TagType, data []byte, info *Info) error {
	glog.V(3).Infof("tag %s (%d bytes)", t, len(data))
	var dest *string
	switch t {
	case uf2.TagFirmware:
		if info != nil {
			dest = &info.FirmwareName
		}
	case uf2.TagVersion:
		if info != nil {
			dest = &info.FirmwareVersion
		}
	case uf2.TagLTVersion:
		if info != nil {
			dest = &info.LTVersion
		}
	case uf2.TagBoard:
		if info != nil {
			dest = &info.Board
		}
	case uf2.TagBuildDate:
		if info != nil {
			setBuildDate(info, data)
		}
	case uf2.TagOTAFormat2:
		ctx.formatOK = true
	case uf2.TagOTAPartList:
		return ctx.parsePartList(data)
	case uf2.TagOTAPartInfo:
		return ctx.parsePartInfo(data)
	case uf2.TagBinpatch:
		ctx.binpatch = data
	case uf2.TagFALPTable:
		raw := append([]byte(nil), data...)
		ctx.table = &ownedTable{raw: raw, parts: fal.DecodeTable(raw)}
		glog.V(1).Infof("Using partition table from package (%d partitions)", len(ctx.table.partitions()))
	}
	if dest != nil {
		*dest = string(data)
	}
	return nil
}
