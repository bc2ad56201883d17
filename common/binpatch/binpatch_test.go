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
package binpatch

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(data []byte, o int) uint32 {
	return binary.LittleEndian.Uint32(data[o:])
}

func TestApplyDiff32(t *testing.T) {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint32(data[0:], 0x08010000)
	binary.LittleEndian.PutUint32(data[8:], 0x08010100)
	binary.LittleEndian.PutUint32(data[12:], 5)

	p1, err := Diff32(0x100000, []byte{0, 8})
	require.NoError(t, err)
	p2, err := Diff32(-10, []byte{12})
	require.NoError(t, err)
	// Unknown opcodes are skipped.
	patch := append(append(p1, 0x01, 2, 0xAA, 0xBB), p2...)

	require.NoError(t, Apply(data, patch))
	assert.Equal(t, uint32(0x08110000), word(data, 0))
	assert.Equal(t, uint32(0), word(data, 4))
	assert.Equal(t, uint32(0x08110100), word(data, 8))
	assert.Equal(t, uint32(0xFFFFFFFB), word(data, 12))
}

func TestApplyErrors(t *testing.T) {
	data := make([]byte, 8)
	cases := []struct {
		name  string
		patch []byte
	}{
		{"truncated header", []byte{OpDiff32}},
		{"truncated record", []byte{OpDiff32, 6, 1, 0, 0, 0}},
		{"short diff32", []byte{OpDiff32, 2, 1, 0}},
		{"offset out of range", []byte{OpDiff32, 5, 1, 0, 0, 0, 5}},
	}
	for _, c := range cases {
		assert.Errorf(t, Apply(data, c.patch), "case %s", c.name)
	}
	assert.NoError(t, Apply(data, nil))
}

func TestDiff32TooLong(t *testing.T) {
	_, err := Diff32(1, make([]byte, 252))
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	a := make([]byte, 256)
	for i := 0; i < len(a); i += 4 {
		binary.LittleEndian.PutUint32(a[i:], uint32(0x08010000+i))
	}
	b := append([]byte(nil), a...)
	// Two slot-relative addresses and one negative delta.
	binary.LittleEndian.PutUint32(b[16:], word(a, 16)+0x100000)
	binary.LittleEndian.PutUint32(b[252:], word(a, 252)+0x100000)
	binary.LittleEndian.PutUint32(b[40:], word(a, 40)-3)

	patch, err := Diff(a, b)
	require.NoError(t, err)
	want1, _ := Diff32(0x100000, []byte{16, 252})
	want2, _ := Diff32(-3, []byte{40})
	assert.Equal(t, append(want1, want2...), patch)

	require.NoError(t, Apply(a, patch))
	assert.Equal(t, b, a)

	patch, err = Diff(a, b)
	require.NoError(t, err)
	assert.Empty(t, patch)
}

func TestDiffErrors(t *testing.T) {
	_, err := Diff(make([]byte, 4), make([]byte, 8))
	assert.Error(t, err)
	_, err = Diff(make([]byte, 260), make([]byte, 260))
	assert.Error(t, err)
	_, err = Diff([]byte{0, 0, 0, 0, 1}, []byte{0, 0, 0, 0, 2})
	assert.Error(t, err)
}
