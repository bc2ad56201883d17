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
	"encoding/binary"
	"fmt"

	"github.com/juju/errors"
)

const (
	PartitionMagic = 0x45503130

	// NameLen is the size of the name fields in an encoded partition record.
	NameLen = 16
	// RecordSize is the size of a single encoded partition record.
	RecordSize = 4 + NameLen + NameLen + 4 + 4 + 4
)

type Partition struct {
	Name      string `yaml:"name"`
	FlashName string `yaml:"flash"`
	Offset    uint32 `yaml:"offset"`
	Length    uint32 `yaml:"length"`
}

func (p *Partition) String() string {
	return fmt.Sprintf("%s (%s, 0x%x @ 0x%x)", p.Name, p.FlashName, p.Length, p.Offset)
}

// partitionRecord is the wire form of a partition, as stored in the
// FAL_PTABLE tag.
type partitionRecord struct {
	Magic     uint32
	Name      [NameLen]byte
	FlashName [NameLen]byte
	Offset    uint32
	Length    uint32
	Reserved  uint32
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// DecodeTable reinterprets raw as an array of partition records. Bytes past
// the last whole record are ignored.
func DecodeTable(raw []byte) []Partition {
	parts := make([]Partition, 0, len(raw)/RecordSize)
	for len(raw) >= RecordSize {
		var rec partitionRecord
		binary.Read(bytes.NewReader(raw[:RecordSize]), binary.LittleEndian, &rec)
		parts = append(parts, Partition{
			Name:      cString(rec.Name[:]),
			FlashName: cString(rec.FlashName[:]),
			Offset:    rec.Offset,
			Length:    rec.Length,
		})
		raw = raw[RecordSize:]
	}
	return parts
}

// EncodeTable is the inverse of DecodeTable.
func EncodeTable(parts []Partition) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(parts)*RecordSize))
	for _, p := range parts {
		// Names are NUL-terminated on the device.
		if len(p.Name) >= NameLen || len(p.FlashName) >= NameLen {
			return nil, errors.Errorf("%s: name too long", p.Name)
		}
		rec := partitionRecord{
			Magic:  PartitionMagic,
			Offset: p.Offset,
			Length: p.Length,
		}
		copy(rec.Name[:], p.Name)
		copy(rec.FlashName[:], p.FlashName)
		if err := binary.Write(buf, binary.LittleEndian, &rec); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return buf.Bytes(), nil
}

// FindPartition returns the partition with the given name, or nil.
func FindPartition(parts []Partition, name string) *Partition {
	for i := range parts {
		if parts[i].Name == name {
			return &parts[i]
		}
	}
	return nil
}
