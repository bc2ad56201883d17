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

	"github.com/juju/errors"
)

// Err is the outcome of processing a block. A nil error means the block was
// handled; ErrIgnore means it was valid but skipped. Any other value should
// abort the update.
type Err int

const (
	ErrIgnore                   Err = iota + 1 // block should be ignored
	ErrInvalidMagic                            // wrong magic numbers
	ErrFamilyMismatch                          // family ID missing or mismatched
	ErrNotAHeader                              // first block is not a header
	ErrUnsupportedFormatVersion                // unknown/invalid OTA format version
	ErrSchemeNotSupported                      // no data for the current OTA scheme
	ErrPartitionNotFound                       // no partition with that name
	ErrInvalidPartitionInfo                    // invalid OTA_PART_INFO tag
	ErrPartitionUnset                          // write attempted without a target partition
	ErrDataTooLong                             // data too long, tags won't fit
	ErrSequenceMismatch                        // sequence number mismatched
	ErrEraseFailed                             // erasing flash failed
	ErrWriteFailed                             // writing to flash failed
	ErrShortWrite                              // wrote fewer bytes than requested
)

var errText = map[Err]string{
	ErrIgnore:                   "block ignored",
	ErrInvalidMagic:             "invalid magic",
	ErrFamilyMismatch:           "family ID mismatch",
	ErrNotAHeader:               "not a header block",
	ErrUnsupportedFormatVersion: "unsupported OTA format version",
	ErrSchemeNotSupported:       "package not usable with this OTA scheme",
	ErrPartitionNotFound:        "partition not found",
	ErrInvalidPartitionInfo:     "invalid partition info",
	ErrPartitionUnset:           "target partition not set",
	ErrDataTooLong:              "block data too long",
	ErrSequenceMismatch:         "sequence number mismatch",
	ErrEraseFailed:              "flash erase failed",
	ErrWriteFailed:              "flash write failed",
	ErrShortWrite:               "short flash write",
}

func (e Err) Error() string {
	if s, ok := errText[e]; ok {
		return s
	}
	return fmt.Sprintf("uf2ota error %d", int(e))
}

// Code returns the numeric error code; 0 means OK.
func Code(err error) int {
	if err == nil {
		return 0
	}
	if e, ok := errors.Cause(err).(Err); ok {
		return int(e)
	}
	return -1
}

// IsValid reports whether err denotes a block that was handled without
// error, i.e. it is nil or ErrIgnore.
func IsValid(err error) bool {
	return err == nil || errors.Cause(err) == ErrIgnore
}
