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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectorSpan(t *testing.T) {
	cases := []struct {
		offset, length, start, size uint32
	}{
		{0, 1, 0, 0x1000},
		{0, 0x1000, 0, 0x1000},
		{0x0ff0, 0x20, 0, 0x2000},
		{0x1100, 0x100, 0x1000, 0x1000},
		{0x1000, 0, 0x1000, 0},
	}
	for _, c := range cases {
		start, size := sectorSpan(c.offset, c.length, 0x1000)
		assert.Equalf(t, c.start, start, "%+v", c)
		assert.Equalf(t, c.size, size, "%+v", c)
	}
}

func TestMemFlash(t *testing.T) {
	m := NewMemFlash("f", 0x4000, 0x1000)
	assert.Equal(t, uint32(0x4000), m.Size())

	n, err := m.Write(0x1100, []byte{0x0f, 0xf0})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	// Without erasing, only bits can be cleared.
	_, err = m.Write(0x1100, []byte{0xf0, 0xff})
	require.NoError(t, err)
	data, err := m.Read(0x1100, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xf0, 0xff}, data)

	erased, err := m.Erase(0x1100, 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xf00), erased)
	assert.Equal(t, 1, m.Erases())
	data, _ = m.Read(0x1000, 0x1000)
	for _, b := range data {
		require.Equal(t, byte(0xff), b)
	}

	_, err = m.Erase(0x3800, 0x1000)
	assert.Error(t, err)
	_, err = m.Write(0x3fff, []byte{1, 2})
	assert.Error(t, err)
	assert.Equal(t, 1, m.Erases())
}

func TestFileFlash(t *testing.T) {
	dir, err := ioutil.TempDir("", "fal")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "flash.bin")

	ff, err := OpenFileFlash("f", path, 0x2000, 0x1000)
	require.NoError(t, err)

	// The image is locked while open.
	_, err = OpenFileFlash("f", path, 0x2000, 0x1000)
	assert.Error(t, err)

	_, err = ff.Write(0x10, []byte{1, 2, 3})
	require.NoError(t, err)
	erased, err := ff.Erase(0x1010, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xff0), erased)
	require.NoError(t, ff.Close())

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 0x2000)
	assert.Equal(t, []byte{0xff, 1, 2, 3, 0xff}, data[0x0f:0x14])

	ff, err = OpenFileFlash("f", path, 0x2000, 0x1000)
	require.NoError(t, err)
	defer ff.Close()
	got, err := ff.Read(0x10, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
}
