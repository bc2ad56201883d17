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
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/juju/errors"
)

const (
	Magic1 = 0x0A324655
	Magic2 = 0x9E5D5157
	Magic3 = 0x0AB16F30

	BlockSize = 512
	DataSize  = 476

	// MD5TrailerSize is the size of the checksum trailer at the end of the data
	// region: start address, length and the 16-byte MD5 digest.
	MD5TrailerSize = 24
)

type Flags uint32

const (
	FlagNotMainFlash  Flags = 0x00000001
	FlagFileContainer Flags = 0x00001000
	FlagHasFamilyID   Flags = 0x00002000
	FlagHasMD5        Flags = 0x00004000
	FlagHasTags       Flags = 0x00008000
)

func (f Flags) String() string {
	var ff []string
	if f&FlagNotMainFlash != 0 {
		ff = append(ff, "NMF")
	}
	if f&FlagFileContainer != 0 {
		ff = append(ff, "FC")
	}
	if f&FlagHasFamilyID != 0 {
		ff = append(ff, "FID")
	}
	if f&FlagHasMD5 != 0 {
		ff = append(ff, "MD5")
	}
	if f&FlagHasTags != 0 {
		ff = append(ff, "TAG")
	}
	return strings.Join(ff, ",")
}

// Block is a single 512-byte unit of an UF2 stream. Field order matches the
// wire layout, so the struct can be read and written with encoding/binary.
type Block struct {
	Magic1 uint32
	Magic2 uint32
	Flags  Flags
	Addr   uint32
	Len    uint32
	Seq    uint32
	Count  uint32
	// FileSize holds the family ID when FlagHasFamilyID is set.
	FileSize uint32
	Data     [DataSize]byte
	Magic3   uint32
}

// NewBlock returns a block with valid magic numbers and the given family ID.
func NewBlock(seq, familyID uint32) *Block {
	return &Block{
		Magic1:   Magic1,
		Magic2:   Magic2,
		Flags:    FlagHasFamilyID,
		Seq:      seq,
		FileSize: familyID,
		Magic3:   Magic3,
	}
}

func (b *Block) ValidMagic() bool {
	return b.Magic1 == Magic1 && b.Magic2 == Magic2 && b.Magic3 == Magic3
}

func (b *Block) NotMainFlash() bool  { return b.Flags&FlagNotMainFlash != 0 }
func (b *Block) FileContainer() bool { return b.Flags&FlagFileContainer != 0 }
func (b *Block) HasFamilyID() bool   { return b.Flags&FlagHasFamilyID != 0 }
func (b *Block) HasMD5() bool        { return b.Flags&FlagHasMD5 != 0 }
func (b *Block) HasTags() bool       { return b.Flags&FlagHasTags != 0 }

// FamilyID returns the family ID and whether the block declares one.
func (b *Block) FamilyID() (uint32, bool) {
	return b.FileSize, b.HasFamilyID()
}

// Payload returns the flashable bytes of the block. Len is clamped to the
// data region size.
func (b *Block) Payload() []byte {
	n := b.Len
	if n > DataSize {
		n = DataSize
	}
	return b.Data[:n]
}

// TagRegion returns the part of the data region following the payload where
// tag records live, excluding the MD5 trailer if present. It returns nil if
// the payload leaves no room for tags.
func (b *Block) TagRegion() []byte {
	end := uint32(DataSize)
	if b.HasMD5() {
		end -= MD5TrailerSize
	}
	if b.Len >= end {
		return nil
	}
	return b.Data[b.Len:end]
}

// SetPayload stores data at the beginning of the data region and clears the
// rest of it.
func (b *Block) SetPayload(addr uint32, data []byte) error {
	if len(data) > DataSize {
		return errors.Errorf("payload too long (%d > %d)", len(data), DataSize)
	}
	b.Addr = addr
	b.Len = uint32(len(data))
	n := copy(b.Data[:], data)
	for i := n; i < DataSize; i++ {
		b.Data[i] = 0
	}
	return nil
}

// SetTags encodes tags right after the payload and sets FlagHasTags. The
// payload must be set first.
func (b *Block) SetTags(tags []Tag) error {
	region := b.TagRegion()
	var buf []byte
	var err error
	for _, t := range tags {
		if buf, err = AppendTag(buf, t.Type, t.Data); err != nil {
			return errors.Trace(err)
		}
	}
	// Room for the terminating zero-length record.
	if len(buf)+tagHeaderSize > len(region) {
		return errors.Errorf("tags do not fit in block %d (%d bytes, %d available)",
			b.Seq, len(buf)+tagHeaderSize, len(region))
	}
	n := copy(region, buf)
	for i := n; i < len(region); i++ {
		region[i] = 0
	}
	if len(tags) > 0 {
		b.Flags |= FlagHasTags
	} else {
		b.Flags &^= FlagHasTags
	}
	return nil
}

func (b *Block) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, BlockSize))
	if err := binary.Write(buf, binary.LittleEndian, b); err != nil {
		return nil, errors.Trace(err)
	}
	return buf.Bytes(), nil
}

func (b *Block) UnmarshalBinary(data []byte) error {
	if len(data) != BlockSize {
		return errors.Errorf("invalid block size %d", len(data))
	}
	return errors.Trace(binary.Read(bytes.NewReader(data), binary.LittleEndian, b))
}

// ParseBlock decodes a 512-byte block. Magic numbers are not checked.
func ParseBlock(data []byte) (*Block, error) {
	b := &Block{}
	if err := b.UnmarshalBinary(data); err != nil {
		return nil, errors.Trace(err)
	}
	return b, nil
}
