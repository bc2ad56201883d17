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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libretiny-eu/ltchiptool/common/fal"
	"github.com/libretiny-eu/ltchiptool/common/uf2"
)

func TestCheckMagic(t *testing.T) {
	backend, _ := newTestBackend()
	for i := 0; i < 3; i++ {
		ctx := NewContext(SchemeDeviceSingle, testFamily, backend)
		b := headerBlock(t, formatTag())
		switch i {
		case 0:
			b.Magic1 ^= 1
		case 1:
			b.Magic2 = 0
		case 2:
			b.Magic3 = uf2.Magic1
		}
		assert.Equal(t, ErrInvalidMagic, ctx.Feed(b, nil), "magic %d", i)
		assert.Equal(t, uint32(0), ctx.Seq(), "magic %d", i)
	}
}

func TestCheckFamily(t *testing.T) {
	backend, _ := newTestBackend()
	ctx := NewContext(SchemeDeviceSingle, testFamily, backend)

	b := headerBlock(t, formatTag())
	b.FileSize = 0x12345678
	assert.Equal(t, ErrFamilyMismatch, ctx.Check(b))

	b = headerBlock(t, formatTag())
	b.Flags &^= uf2.FlagHasFamilyID
	assert.Equal(t, ErrFamilyMismatch, ctx.Check(b))

	b = headerBlock(t, formatTag())
	b.Flags |= uf2.FlagFileContainer
	assert.Equal(t, ErrIgnore, ctx.Check(b))
	assert.True(t, IsValid(ctx.Check(b)))

	assert.NoError(t, ctx.Check(headerBlock(t, formatTag())))
}

func TestHeaderRequired(t *testing.T) {
	backend, _ := newTestBackend()

	ctx := NewContext(SchemeDeviceSingle, testFamily, backend)
	b := headerBlock(t, formatTag())
	b.Flags &^= uf2.FlagHasTags
	assert.Equal(t, ErrNotAHeader, ctx.Feed(b, nil))

	ctx = NewContext(SchemeDeviceSingle, testFamily, backend)
	b = dataBlock(t, 0, 0, payload(16, 1), formatTag())
	assert.Equal(t, ErrNotAHeader, ctx.Feed(b, nil))

	ctx = NewContext(SchemeDeviceSingle, testFamily, backend)
	b = headerBlock(t, uf2.StringTag(uf2.TagFirmware, "fw"))
	assert.Equal(t, ErrUnsupportedFormatVersion, ctx.Feed(b, nil))

	ctx = NewContext(SchemeDeviceSingle, testFamily, backend)
	b = headerBlock(t, uf2.Tag{Type: uf2.TagOTAFormat1})
	assert.Equal(t, ErrUnsupportedFormatVersion, ctx.Feed(b, nil))

	ctx = NewContext(SchemeDeviceSingle, testFamily, backend)
	assert.NoError(t, ctx.Feed(headerBlock(t, formatTag()), nil))
	assert.Equal(t, uint32(1), ctx.Seq())
}

func TestHeaderDispatchErrorWins(t *testing.T) {
	backend, _ := newTestBackend()
	ctx := NewContext(SchemeDeviceDual2, testFamily, backend)
	// The part list error comes before the format tag would have been seen.
	b := headerBlock(t,
		uf2.Tag{Type: uf2.TagOTAPartList, Data: EncodePartList(SchemeDeviceSingle)},
		formatTag(),
	)
	assert.Equal(t, ErrSchemeNotSupported, ctx.Feed(b, nil))
	assert.Equal(t, uint32(1), ctx.Seq())
}

func TestHeaderNoRollback(t *testing.T) {
	backend, _ := newTestBackend()
	ctx := NewContext(SchemeDeviceDual2, testFamily, backend)
	b := headerBlock(t,
		formatTag(),
		uf2.Tag{Type: uf2.TagOTAPartList, Data: EncodePartList(SchemeDeviceSingle)},
	)
	assert.Equal(t, ErrSchemeNotSupported, ctx.Feed(b, nil))
	assert.True(t, ctx.formatOK)
}

func TestSequence(t *testing.T) {
	backend, _ := newTestBackend()
	ctx := startSession(t, SchemeDeviceSingle, backend)
	assert.Equal(t, uint32(1), ctx.Seq())

	b := dataBlock(t, 2, 0, payload(16, 1))
	assert.Equal(t, ErrSequenceMismatch, ctx.Feed(b, nil))
	assert.Equal(t, uint32(1), ctx.Seq())

	// Counter advances even when tag processing fails.
	b = dataBlock(t, 1, 0, nil, uf2.Tag{Type: uf2.TagOTAPartInfo, Data: []byte{1}})
	assert.Equal(t, ErrInvalidPartitionInfo, ctx.Feed(b, nil))
	assert.Equal(t, uint32(2), ctx.Seq())
}

func TestDataTooLong(t *testing.T) {
	backend, _ := newTestBackend()
	ctx := startSession(t, SchemeDeviceSingle, backend)

	b := dataBlock(t, 1, 0, payload(maxTaggedData+1, 1))
	b.Flags |= uf2.FlagHasTags
	assert.Equal(t, ErrDataTooLong, ctx.Feed(b, nil))

	b = dataBlock(t, 2, 0, payload(16, 1))
	b.Len = 1000
	assert.Equal(t, ErrDataTooLong, ctx.Feed(b, nil))
	assert.Equal(t, uint32(3), ctx.Seq())
}

func TestInfo(t *testing.T) {
	backend, _ := newTestBackend()
	ctx := NewContext(SchemeDeviceSingle, testFamily, backend)
	info := NewInfo()
	b := headerBlock(t,
		formatTag(),
		uf2.StringTag(uf2.TagFirmware, "esphome"),
		uf2.StringTag(uf2.TagVersion, "2023.1.0"),
		uf2.StringTag(uf2.TagBoard, "wb2l"),
		uf2.Uint32Tag(uf2.TagBuildDate, 1672531200),
	)
	require.NoError(t, ctx.Feed(b, info))
	assert.Equal(t, "esphome", info.FirmwareName)
	assert.Equal(t, "2023.1.0", info.FirmwareVersion)
	assert.Equal(t, "wb2l", info.Board)
	assert.Equal(t, "", info.LTVersion)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), info.BuildDate)

	// No info requested: tags are still processed.
	ctx = NewContext(SchemeDeviceSingle, testFamily, backend)
	require.NoError(t, ctx.Feed(b, nil))
}

func TestEmbeddedPartitionTable(t *testing.T) {
	backend, flash := newTestBackend()
	custom := []fal.Partition{{Name: "ota", FlashName: "flash0", Offset: 0xE000, Length: 0x2000}}
	raw, err := fal.EncodeTable(custom)
	require.NoError(t, err)

	ctx := NewContext(SchemeDeviceSingle, testFamily, backend)
	require.NoError(t, ctx.Feed(headerBlock(t, formatTag(), uf2.Tag{Type: uf2.TagFALPTable, Data: raw}), nil))
	assert.True(t, ctx.OwnsPartitionTable())
	assert.Equal(t, custom, ctx.Partitions())

	b := dataBlock(t, 1, 0x10, payload(16, 0x5A), partInfoTag(t, map[Scheme]string{SchemeDeviceSingle: "ota"}))
	require.NoError(t, ctx.Feed(b, nil))
	data, _ := flash.Read(0xE010, 16)
	assert.Equal(t, payload(16, 0x5A), data)

	// Names from the backend table are no longer visible.
	b = dataBlock(t, 2, 0, payload(16, 1), partInfoTag(t, map[Scheme]string{SchemeDeviceSingle: "app"}))
	assert.Equal(t, ErrPartitionNotFound, ctx.Feed(b, nil))

	ctx.Close()
	assert.False(t, ctx.OwnsPartitionTable())
	assert.Equal(t, testTable, ctx.Partitions())
	assert.Nil(t, ctx.Partition())
}
