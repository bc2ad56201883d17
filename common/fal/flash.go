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

// Package fal is a small flash abstraction layer: flash devices with erase
// and write primitives, and a partition table mapping partition names to
// regions of those devices.
package fal

import (
	"github.com/golang/glog"
	"github.com/juju/errors"
)

// Device is a NOR-like flash device.
type Device interface {
	Name() string
	Size() uint32
	// Erase erases all sectors covering [offset, offset+length) and returns
	// the number of bytes erased starting at offset, which may exceed length.
	Erase(offset, length uint32) (uint32, error)
	// Write programs data at offset and returns the number of bytes written.
	Write(offset uint32, data []byte) (int, error)
	Read(offset, length uint32) ([]byte, error)
}

// sectorSpan returns the sector-aligned region covering [offset, offset+length).
func sectorSpan(offset, length, sectorSize uint32) (uint32, uint32) {
	start := offset - offset%sectorSize
	end := uint64(offset) + uint64(length)
	if rem := end % uint64(sectorSize); rem != 0 {
		end += uint64(sectorSize) - rem
	}
	return start, uint32(end - uint64(start))
}

func checkRange(d Device, offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(d.Size()) {
		return errors.Errorf("%s: 0x%x @ 0x%x is out of range (size 0x%x)", d.Name(), length, offset, d.Size())
	}
	return nil
}

// MemFlash is a flash device kept in memory. Erased bytes read as 0xFF and
// writes can only clear bits.
type MemFlash struct {
	name       string
	sectorSize uint32
	data       []byte
	erases     int
}

func NewMemFlash(name string, size, sectorSize uint32) *MemFlash {
	if sectorSize == 0 {
		sectorSize = 1
	}
	m := &MemFlash{
		name:       name,
		sectorSize: sectorSize,
		data:       make([]byte, size),
	}
	fill(m.data, 0xff)
	return m
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

func (m *MemFlash) Name() string       { return m.name }
func (m *MemFlash) Size() uint32       { return uint32(len(m.data)) }
func (m *MemFlash) SectorSize() uint32 { return m.sectorSize }

// Erases returns the number of successful Erase calls.
func (m *MemFlash) Erases() int { return m.erases }

func (m *MemFlash) Erase(offset, length uint32) (uint32, error) {
	start, size := sectorSpan(offset, length, m.sectorSize)
	if err := checkRange(m, start, size); err != nil {
		return 0, errors.Trace(err)
	}
	glog.V(3).Infof("%s: erase 0x%x @ 0x%x", m.name, size, start)
	fill(m.data[start:start+size], 0xff)
	m.erases++
	return start + size - offset, nil
}

func (m *MemFlash) Write(offset uint32, data []byte) (int, error) {
	if err := checkRange(m, offset, uint32(len(data))); err != nil {
		return 0, errors.Trace(err)
	}
	dst := m.data[offset:]
	for i, b := range data {
		dst[i] &= b
	}
	return len(data), nil
}

func (m *MemFlash) Read(offset, length uint32) ([]byte, error) {
	if err := checkRange(m, offset, length); err != nil {
		return nil, errors.Trace(err)
	}
	return append([]byte(nil), m.data[offset:offset+length]...), nil
}
