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
package ourutil

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindNamedSubmatches(t *testing.T) {
	r := regexp.MustCompile(`^(?P<name>[a-z]+)(?:\+(?P<offset>\d+))?$`)
	assert.Equal(t, map[string]string{"name": "app", "offset": "16"}, FindNamedSubmatches(r, "app+16"))
	assert.Equal(t, map[string]string{"name": "app", "offset": ""}, FindNamedSubmatches(r, "app"))
	assert.Nil(t, FindNamedSubmatches(r, "APP"))
}

func TestHumanSize(t *testing.T) {
	for n, want := range map[uint32]string{
		0:        "0 B",
		1000:     "1000 B",
		0x1000:   "4 KiB",
		0x1800:   "6 KiB",
		0x1801:   "6145 B",
		0x200000: "2 MiB",
		0x180000: "1536 KiB",
	} {
		assert.Equal(t, want, HumanSize(n), "%d", n)
	}
}
