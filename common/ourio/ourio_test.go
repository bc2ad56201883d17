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
package ourio

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileIfDifferent(t *testing.T) {
	dir, err := ioutil.TempDir("", "ourio")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	fname := filepath.Join(dir, "sub", "app.bin")
	changed, err := WriteFileIfDifferent(fname, []byte{1, 2, 3}, 0644)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = WriteFileIfDifferent(fname, []byte{1, 2, 3}, 0644)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = WriteFileIfDifferent(fname, []byte{4}, 0644)
	require.NoError(t, err)
	assert.True(t, changed)
	data, err := ioutil.ReadFile(fname)
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, data)

	// No temporary files are left behind.
	entries, err := ioutil.ReadDir(filepath.Dir(fname))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
