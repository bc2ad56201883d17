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
	"bytes"

	"github.com/golang/glog"

	"github.com/libretiny-eu/ltchiptool/common/fal"
)

// maxPartIndex is the number of partition names OTA_PART_INFO can refer to.
const maxPartIndex = 6

// parsePartList makes sure the package is usable with this OTA scheme.
func (ctx *Context) parsePartList(data []byte) error {
	if len(data) < 3 {
		return ErrSchemeNotSupported
	}
	if schemeValue(data, ctx.schemeIndex, ctx.schemeShift) == 0 {
		return ErrSchemeNotSupported
	}
	return nil
}

// parsePartInfo selects the target partition for the following blocks.
func (ctx *Context) parsePartInfo(data []byte) error {
	// Any previous selection and erase state no longer applies.
	ctx.part = nil
	ctx.flash = nil
	ctx.erasedOffset = 0
	ctx.erasedLength = 0
	ctx.partSet = true

	if len(data) < 3 {
		return ErrInvalidPartitionInfo
	}
	index := int(schemeValue(data, ctx.schemeIndex, ctx.schemeShift))
	if index == 0 {
		glog.V(2).Infof("no target partition for scheme %s", ctx.scheme)
		return nil
	}
	if index > maxPartIndex {
		return ErrInvalidPartitionInfo
	}
	name, ok := partName(data[3:], index)
	if !ok {
		return ErrInvalidPartitionInfo
	}

	ctx.part = fal.FindPartition(ctx.table.partitions(), name)
	if ctx.part == nil {
		glog.Errorf("Partition %q not found", name)
		return ErrPartitionNotFound
	}
	ctx.flash = ctx.backend.FlashDevice(ctx.part.FlashName)
	if ctx.flash == nil {
		glog.Warningf("Flash device %q of partition %q not found", ctx.part.FlashName, name)
	}
	glog.V(1).Infof("Target partition: %s", ctx.part)
	return nil
}

// partName returns the index-th (1-based) name from a list of NUL-terminated
// strings. Empty and unterminated names make the list invalid.
func partName(names []byte, index int) (string, bool) {
	for i := 1; len(names) > 0; i++ {
		end := bytes.IndexByte(names, 0)
		if end <= 0 {
			return "", false
		}
		if i == index {
			return string(names[:end]), true
		}
		names = names[end+1:]
	}
	return "", false
}
