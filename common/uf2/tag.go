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
package uf2

import (
	"encoding/binary"
	"fmt"

	"github.com/juju/errors"
)

type TagType uint32

const (
	TagVersion     TagType = 0x9FC7BC // firmware version, UTF-8 semver string
	TagPageSize    TagType = 0x0BE9F7 // page size of the target device, uint32
	TagSHA2        TagType = 0xB46DB0 // SHA-2 checksum of the firmware
	TagDevice      TagType = 0x650D9D // device description, UTF-8
	TagDeviceID    TagType = 0xC8A729 // device type identifier
	TagOTAFormat1  TagType = 0x5D57D0
	TagOTAFormat2  TagType = 0x6C8492
	TagOTAPartList TagType = 0x6EC68A // OTA schemes this package is usable with
	TagOTAPartInfo TagType = 0xC0EE0C // partition names for each OTA scheme
	TagBoard       TagType = 0xCA25C8 // board code
	TagFirmware    TagType = 0x00DE43 // firmware name
	TagBuildDate   TagType = 0x822F30 // build time, Unix timestamp
	TagBinpatch    TagType = 0xB948DE // binary patch converting OTA1 data to OTA2
	TagFALPTable   TagType = 0x8288ED // FAL partition table
	TagLTVersion   TagType = 0x59563D // LibreTiny version, semver
)

var tagNames = map[TagType]string{
	TagVersion:     "VERSION",
	TagPageSize:    "PAGE_SIZE",
	TagSHA2:        "SHA2",
	TagDevice:      "DEVICE",
	TagDeviceID:    "DEVICE_ID",
	TagOTAFormat1:  "OTA_FORMAT_1",
	TagOTAFormat2:  "OTA_FORMAT_2",
	TagOTAPartList: "OTA_PART_LIST",
	TagOTAPartInfo: "OTA_PART_INFO",
	TagBoard:       "BOARD",
	TagFirmware:    "FIRMWARE",
	TagBuildDate:   "BUILD_DATE",
	TagBinpatch:    "BINPATCH",
	TagFALPTable:   "FAL_PTABLE",
	TagLTVersion:   "LT_VERSION",
}

func (t TagType) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return fmt.Sprintf("0x%06X", uint32(t))
}

const (
	tagHeaderSize = 4
	// MaxTagData is the largest tag payload, limited by the 1-byte length field.
	MaxTagData = 0xff - tagHeaderSize
)

type Tag struct {
	Type TagType
	Data []byte
}

// ReadTag decodes the record header at the start of buf, which must end where
// the tag region ends. It returns the total record length, including the
// header, or 0 if the record terminates the table: zero or too short length,
// zero type, or a record that does not fit in buf.
func ReadTag(buf []byte) (int, TagType) {
	if len(buf) < tagHeaderSize {
		return 0, 0
	}
	n := int(buf[0])
	if n < tagHeaderSize || n > len(buf) {
		return 0, 0
	}
	t := TagType(uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16)
	if t == 0 {
		return 0, 0
	}
	return n, t
}

// NextTagOffset returns the distance from the start of a record of length n to
// the start of the next one.
func NextTagOffset(n int) int {
	return (n + 3) &^ 3
}

// ScanTags walks the tag records in region and calls fn for each one. Scanning
// stops at the first terminating record, at the end of the region, or when fn
// returns an error, which is then returned as is.
func ScanTags(region []byte, fn func(t TagType, data []byte) error) error {
	pos := 0
	for pos < len(region) {
		n, t := ReadTag(region[pos:])
		if n == 0 {
			break
		}
		if err := fn(t, region[pos+tagHeaderSize:pos+n]); err != nil {
			return err
		}
		pos += NextTagOffset(n)
	}
	return nil
}

// Tags returns copies of all tag records found in the block.
func (b *Block) Tags() []Tag {
	if !b.HasTags() {
		return nil
	}
	var tags []Tag
	ScanTags(b.TagRegion(), func(t TagType, data []byte) error {
		tags = append(tags, Tag{Type: t, Data: append([]byte(nil), data...)})
		return nil
	})
	return tags
}

// AppendTag encodes a tag record, padded to 4 bytes, and appends it to dst.
func AppendTag(dst []byte, t TagType, data []byte) ([]byte, error) {
	if t == 0 || t > 0xffffff {
		return dst, errors.Errorf("invalid tag type 0x%x", uint32(t))
	}
	if len(data) > MaxTagData {
		return dst, errors.Errorf("%s: tag data too long (%d > %d)", t, len(data), MaxTagData)
	}
	n := tagHeaderSize + len(data)
	dst = append(dst, byte(n), byte(t), byte(t>>8), byte(t>>16))
	dst = append(dst, data...)
	for i := n; i < NextTagOffset(n); i++ {
		dst = append(dst, 0)
	}
	return dst, nil
}

// EncodedTagsSize returns the number of bytes tags occupy in a block,
// excluding the terminator.
func EncodedTagsSize(tags []Tag) int {
	size := 0
	for _, t := range tags {
		size += NextTagOffset(tagHeaderSize + len(t.Data))
	}
	return size
}

func StringTag(t TagType, s string) Tag {
	return Tag{Type: t, Data: []byte(s)}
}

func Uint32Tag(t TagType, v uint32) Tag {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, v)
	return Tag{Type: t, Data: data}
}
