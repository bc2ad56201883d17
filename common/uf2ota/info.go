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
	"encoding/binary"
	"time"
)

// Info is the firmware description found in package tags. Fields are left
// empty when the corresponding tag is absent.
type Info struct {
	FirmwareName    string
	FirmwareVersion string
	LTVersion       string
	Board           string
	BuildDate       time.Time
}

func NewInfo() *Info {
	return &Info{}
}

func setBuildDate(info *Info, data []byte) {
	if len(data) < 4 {
		return
	}
	info.BuildDate = time.Unix(int64(binary.LittleEndian.Uint32(data)), 0).UTC()
}
