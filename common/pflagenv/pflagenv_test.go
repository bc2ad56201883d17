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
package pflagenv

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagSet(t *testing.T) {
	fs := pflag.NewFlagSet("pflagenv-test", pflag.ContinueOnError)

	var layout, scheme, output, family string
	var count int
	fs.StringVar(&layout, "layout", "def1", "")
	fs.StringVar(&scheme, "scheme", "def2", "")
	fs.StringVar(&output, "output-dir", "def3", "")
	fs.StringVar(&family, "family", "def4", "")
	fs.IntVar(&count, "count", 1, "")
	require.NoError(t, fs.Parse([]string{"--layout=cl1", "--scheme="}))

	env := map[string]string{
		"TEST_LAYOUT":     "env1",
		"TEST_SCHEME":     "env2",
		"TEST_OUTPUT_DIR": "env3",
		"TEST_FAMILY":     "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	require.NoError(t, ParseFlagSet(fs, "TEST_", lookup))

	assert.Equal(t, "cl1", layout)
	assert.Equal(t, "", scheme)
	assert.Equal(t, "env3", output)
	assert.True(t, fs.Lookup("output-dir").Changed)
	assert.Equal(t, "def4", family)
	assert.False(t, fs.Lookup("family").Changed)
	assert.Equal(t, 1, count)

	env["TEST_COUNT"] = "many"
	assert.Error(t, ParseFlagSet(fs, "TEST_", lookup))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "LTCHIPTOOL_MIN_LT_VERSION", EnvName("LTCHIPTOOL_", "min-lt-version"))
	assert.Equal(t, "X", EnvName("", "x"))
}
