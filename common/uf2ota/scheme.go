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
	"fmt"
	"strings"

	"github.com/juju/errors"
)

// Scheme is the OTA topology of the device being updated.
type Scheme int

const (
	SchemeDeviceSingle Scheme = iota
	SchemeDeviceDual1
	SchemeDeviceDual2
	SchemeFlasherSingle
	SchemeFlasherDual1
	SchemeFlasherDual2

	NumSchemes = 6
)

var schemeNames = [NumSchemes]string{
	SchemeDeviceSingle:  "device",
	SchemeDeviceDual1:   "device1",
	SchemeDeviceDual2:   "device2",
	SchemeFlasherSingle: "flasher",
	SchemeFlasherDual1:  "flasher1",
	SchemeFlasherDual2:  "flasher2",
}

// Scheme-keyed tags pack two 4-bit values per byte: even schemes in the high
// nibble, odd schemes in the low one.
var schemeNibbles = [NumSchemes]struct {
	index int
	shift uint
}{
	SchemeDeviceSingle:  {0, 4},
	SchemeDeviceDual1:   {0, 0},
	SchemeDeviceDual2:   {1, 4},
	SchemeFlasherSingle: {1, 0},
	SchemeFlasherDual1:  {2, 4},
	SchemeFlasherDual2:  {2, 0},
}

func ParseScheme(s string) (Scheme, error) {
	for i, n := range schemeNames {
		if strings.EqualFold(s, n) {
			return Scheme(i), nil
		}
	}
	return 0, errors.NotValidf("OTA scheme %q (must be one of: %s)", s, strings.Join(schemeNames[:], ", "))
}

func (s Scheme) Valid() bool {
	return s >= 0 && s < NumSchemes
}

func (s Scheme) String() string {
	if !s.Valid() {
		return fmt.Sprintf("scheme(%d)", int(s))
	}
	return schemeNames[s]
}

// Nibble returns the byte index and bit shift of this scheme's 4-bit value
// in scheme-keyed tag data.
func (s Scheme) Nibble() (int, uint) {
	n := schemeNibbles[s]
	return n.index, n.shift
}

// NeedsBinpatch reports whether data blocks must be patched before writing,
// which is the case when flashing the second slot of a dual-OTA layout.
func (s Scheme) NeedsBinpatch() bool {
	return s == SchemeDeviceDual2 || s == SchemeFlasherDual2
}

// schemeValue extracts the 4-bit value for the given byte index and shift.
// data must have at least 3 bytes.
func schemeValue(data []byte, index int, shift uint) uint8 {
	return (data[index] >> shift) & 0x0f
}
