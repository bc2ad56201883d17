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
package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// UF2 family IDs of the supported chips.
var families = map[string]uint32{
	"rtl8710a": 0x9FFFD543,
	"rtl8710b": 0x22E0D6FC,
	"rtl8720c": 0xE08F7564,
	"rtl8720d": 0x3379CFE2,
	"bk7231u":  0x675A40B0,
	"bk7231n":  0x7B3EF230,
	"bk7251":   0x9517422F,
	"bl60x":    0x6A82CC42,
}

// parseFamily accepts a family name or a number (decimal or 0x-prefixed).
func parseFamily(s string) (uint32, error) {
	if id, ok := families[strings.ToLower(s)]; ok {
		return id, nil
	}
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.NotValidf("family %q (known: %s)", s, strings.Join(familyNames(), ", "))
	}
	return uint32(id), nil
}

func familyName(id uint32) string {
	for name, fid := range families {
		if fid == id {
			return fmt.Sprintf("%s (0x%08X)", name, id)
		}
	}
	return fmt.Sprintf("0x%08X", id)
}

func familyNames() []string {
	var names []string
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
