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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeTable(t *testing.T) {
	parts := []Partition{
		{Name: "boot", FlashName: "flash0", Offset: 0, Length: 0x11000},
		{Name: "app", FlashName: "flash0", Offset: 0x11000, Length: 0x121000},
	}
	raw, err := EncodeTable(parts)
	require.NoError(t, err)
	require.Len(t, raw, 2*RecordSize)
	assert.Equal(t, uint32(PartitionMagic), binary.LittleEndian.Uint32(raw))
	assert.Equal(t, uint32(0x11000), binary.LittleEndian.Uint32(raw[RecordSize+36:]))

	// Trailing garbage shorter than a record is ignored.
	got := DecodeTable(append(raw, 1, 2, 3))
	assert.Equal(t, parts, got)

	assert.Empty(t, DecodeTable(raw[:RecordSize-1]))
}

func TestEncodeTableNameTooLong(t *testing.T) {
	_, err := EncodeTable([]Partition{{Name: "0123456789abcdef", FlashName: "f"}})
	assert.Error(t, err)
}

func TestFindPartition(t *testing.T) {
	parts := []Partition{{Name: "boot"}, {Name: "app"}}
	p := FindPartition(parts, "app")
	require.NotNil(t, p)
	assert.True(t, p == &parts[1])
	assert.Nil(t, FindPartition(parts, "ap"))
}
