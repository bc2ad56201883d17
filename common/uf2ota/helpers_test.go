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

	"github.com/stretchr/testify/require"

	"github.com/libretiny-eu/ltchiptool/common/fal"
	"github.com/libretiny-eu/ltchiptool/common/uf2"
)

const testFamily = 0x7B3EF230

// testFlash wraps a MemFlash, recording erase calls and injecting failures.
type testFlash struct {
	*fal.MemFlash
	erases   [][2]uint32
	eraseErr error
	writeErr error
	short    int
}

func (f *testFlash) Erase(offset, length uint32) (uint32, error) {
	if f.eraseErr != nil {
		return 0, f.eraseErr
	}
	f.erases = append(f.erases, [2]uint32{offset, length})
	return f.MemFlash.Erase(offset, length)
}

func (f *testFlash) Write(offset uint32, data []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	n, err := f.MemFlash.Write(offset, data)
	return n - f.short, err
}

var testTable = []fal.Partition{
	{Name: "boot", FlashName: "flash0", Offset: 0, Length: 0x2000},
	{Name: "app", FlashName: "flash0", Offset: 0x2000, Length: 0x8000},
	{Name: "app2", FlashName: "flash0", Offset: 0xA000, Length: 0x4000},
	{Name: "ext", FlashName: "missing", Offset: 0, Length: 0x1000},
}

func newTestBackend() (*fal.Registry, *testFlash) {
	f := &testFlash{MemFlash: fal.NewMemFlash("flash0", 0x10000, 0x1000)}
	table := append([]fal.Partition(nil), testTable...)
	return fal.NewRegistry(table, f), f
}

func headerBlock(t *testing.T, tags ...uf2.Tag) *uf2.Block {
	b := uf2.NewBlock(0, testFamily)
	require.NoError(t, b.SetTags(tags))
	b.Flags |= uf2.FlagHasTags
	return b
}

func dataBlock(t *testing.T, seq, addr uint32, data []byte, tags ...uf2.Tag) *uf2.Block {
	b := uf2.NewBlock(seq, testFamily)
	require.NoError(t, b.SetPayload(addr, data))
	require.NoError(t, b.SetTags(tags))
	return b
}

func formatTag() uf2.Tag {
	return uf2.Tag{Type: uf2.TagOTAFormat2}
}

func partInfoTag(t *testing.T, targets map[Scheme]string) uf2.Tag {
	data, err := EncodePartInfo(targets)
	require.NoError(t, err)
	return uf2.Tag{Type: uf2.TagOTAPartInfo, Data: data}
}

// startSession returns a context with a valid header already processed.
func startSession(t *testing.T, scheme Scheme, backend Backend, opts ...Option) *Context {
	ctx := NewContext(scheme, testFamily, backend, opts...)
	require.NoError(t, ctx.Feed(headerBlock(t, formatTag()), nil))
	return ctx
}

func payload(n int, v byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = v
	}
	return data
}
