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
package flags

import (
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/libretiny-eu/ltchiptool/common/fal"
	"github.com/libretiny-eu/ltchiptool/common/uf2ota"
)

var (
	Layout = flag.String("layout", "", "Flash layout file (YAML): flash devices and partition table")
	Scheme = flag.String("scheme", "device", "OTA scheme: device, device1, device2, flasher, flasher1, flasher2")
	Family = flag.String("family", "", "Chip family name or numeric family ID. "+
		"If not set, the family of the package header is used.")
	MinLTVersion = flag.String("min-lt-version", "", "Refuse packages built with an older LibreTiny version")
	InMemory     = flag.Bool("in-memory", false, "Do not touch image files of the flash layout")

	Output    = flag.StringP("output", "o", "", "Output file or directory")
	Format    = flag.String("format", "bin", "Dump format: bin or hex")
	BlockSize = flag.Int("block-size", 256, "Payload bytes per UF2 block")

	Board     = flag.String("board", "", "Board name")
	Firmware  = flag.String("fw", "", "Firmware name and version, as name:version")
	LTVersion = flag.String("lt-version", "", "LibreTiny version")
	BuildDate = flag.Int64("build-date", 0, "Build date (Unix time). Current time if 0.")
	Device    = flag.String("device", "", "Device name tag")
)

func OTAScheme() (uf2ota.Scheme, error) {
	return uf2ota.ParseScheme(*Scheme)
}

// FlashLayout loads the layout given by --layout. Devices are kept in memory
// if inMemory or --in-memory is set.
func FlashLayout(inMemory bool) (*fal.Registry, error) {
	cfg, err := fal.LoadConfig(*Layout)
	if err != nil {
		return nil, errors.Trace(err)
	}
	r, err := cfg.Open(inMemory || *InMemory)
	if err != nil {
		return nil, errors.Annotatef(err, "%s", *Layout)
	}
	return r, nil
}
