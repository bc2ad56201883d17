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

// Package binpatch applies the binary patches carried in UF2 BINPATCH tags.
//
// A patch is a sequence of records: opcode (1 byte), length (1 byte) and
// length bytes of opcode data. Records with unknown opcodes are skipped.
package binpatch

import (
	"encoding/binary"

	"github.com/juju/errors"
)

const (
	// OpDiff32 adds a signed 32-bit delta to 32-bit little-endian words.
	// Data: delta (int32 LE), followed by byte offsets of the words.
	OpDiff32 = 0xFE
)

// Apply patches data in place.
func Apply(data, patch []byte) error {
	for pos := 0; pos < len(patch); {
		if pos+2 > len(patch) {
			return errors.Errorf("truncated record header at %d", pos)
		}
		op, n := patch[pos], int(patch[pos+1])
		pos += 2
		if pos+n > len(patch) {
			return errors.Errorf("opcode 0x%02x: truncated record (%d > %d)", op, n, len(patch)-pos)
		}
		rec := patch[pos : pos+n]
		pos += n
		switch op {
		case OpDiff32:
			if err := diff32(data, rec); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return nil
}

func diff32(data, rec []byte) error {
	if len(rec) < 4 {
		return errors.Errorf("diff32: record too short (%d)", len(rec))
	}
	delta := binary.LittleEndian.Uint32(rec[:4])
	for _, offs := range rec[4:] {
		o := int(offs)
		if o+4 > len(data) {
			return errors.Errorf("diff32: offset %d out of range (%d)", o, len(data))
		}
		v := binary.LittleEndian.Uint32(data[o:])
		binary.LittleEndian.PutUint32(data[o:], v+delta)
	}
	return nil
}

// Diff32 encodes a DIFF32 record.
func Diff32(delta int32, offsets []byte) ([]byte, error) {
	n := 4 + len(offsets)
	if n > 0xff {
		return nil, errors.Errorf("diff32: too many offsets (%d)", len(offsets))
	}
	rec := make([]byte, 2+n)
	rec[0] = OpDiff32
	rec[1] = byte(n)
	binary.LittleEndian.PutUint32(rec[2:], uint32(delta))
	copy(rec[6:], offsets)
	return rec, nil
}

// Diff returns a patch turning a into b, which must have the same length.
// The blocks are compared in 32-bit little-endian words; each differing word
// gets its offset listed under the delta between the two values. Trailing
// bytes that do not form a whole word must be equal.
func Diff(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, errors.Errorf("length mismatch (%d vs %d)", len(a), len(b))
	}
	if len(a) > 0x100 {
		return nil, errors.Errorf("block too long for byte offsets (%d)", len(a))
	}
	var deltas []int32
	offsets := map[int32][]byte{}
	n := len(a) &^ 3
	for i := 0; i < n; i += 4 {
		va, vb := binary.LittleEndian.Uint32(a[i:]), binary.LittleEndian.Uint32(b[i:])
		if va == vb {
			continue
		}
		d := int32(vb - va)
		if _, ok := offsets[d]; !ok {
			deltas = append(deltas, d)
		}
		offsets[d] = append(offsets[d], byte(i))
	}
	for i := n; i < len(a); i++ {
		if a[i] != b[i] {
			return nil, errors.Errorf("unaligned difference at %d", i)
		}
	}
	var patch []byte
	for _, d := range deltas {
		rec, err := Diff32(d, offsets[d])
		if err != nil {
			return nil, errors.Trace(err)
		}
		patch = append(patch, rec...)
	}
	return patch, nil
}
