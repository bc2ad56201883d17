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
	"sort"

	"github.com/juju/errors"
)

func setSchemeValue(data []byte, s Scheme, v uint8) {
	index, shift := s.Nibble()
	data[index] |= (v & 0x0f) << shift
}

// EncodePartList builds OTA_PART_LIST tag data marking the given schemes as
// supported.
func EncodePartList(schemes ...Scheme) []byte {
	data := make([]byte, 3)
	for _, s := range schemes {
		setSchemeValue(data, s, 1)
	}
	return data
}

// EncodePartInfo builds OTA_PART_INFO tag data from target partition names
// per scheme. Schemes without an entry (or with an empty name) have no
// target.
func EncodePartInfo(targets map[Scheme]string) ([]byte, error) {
	var names []string
	seen := map[string]bool{}
	for _, n := range targets {
		if n != "" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	if len(names) > maxPartIndex {
		return nil, errors.Errorf("too many partition names (%d > %d)", len(names), maxPartIndex)
	}
	sort.Strings(names)
	data := make([]byte, 3)
	for s, n := range targets {
		if !s.Valid() {
			return nil, errors.NotValidf("scheme %d", int(s))
		}
		if n == "" {
			continue
		}
		setSchemeValue(data, s, uint8(sort.SearchStrings(names, n)+1))
	}
	for _, n := range names {
		data = append(data, n...)
		data = append(data, 0)
	}
	return data, nil
}

// DecodePartList returns the schemes marked as supported in OTA_PART_LIST
// tag data.
func DecodePartList(data []byte) []Scheme {
	if len(data) < 3 {
		return nil
	}
	var schemes []Scheme
	for s := Scheme(0); s < NumSchemes; s++ {
		index, shift := s.Nibble()
		if schemeValue(data, index, shift) != 0 {
			schemes = append(schemes, s)
		}
	}
	return schemes
}

// DecodePartInfo returns the target partition name of each scheme that has
// one in OTA_PART_INFO tag data.
func DecodePartInfo(data []byte) (map[Scheme]string, error) {
	if len(data) < 3 {
		return nil, ErrInvalidPartitionInfo
	}
	targets := map[Scheme]string{}
	for s := Scheme(0); s < NumSchemes; s++ {
		index, shift := s.Nibble()
		v := int(schemeValue(data, index, shift))
		if v == 0 {
			continue
		}
		name, ok := partName(data[3:], v)
		if v > maxPartIndex || !ok {
			return nil, errors.Annotatef(ErrInvalidPartitionInfo, "%s", s)
		}
		targets[s] = name
	}
	return targets, nil
}
