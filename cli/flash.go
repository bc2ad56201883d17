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
	"github.com/fatih/color"
	"github.com/juju/errors"

	"github.com/libretiny-eu/ltchiptool/cli/flags"
	"github.com/libretiny-eu/ltchiptool/cli/ourutil"
	"github.com/libretiny-eu/ltchiptool/common/fal"
)

func flash() error {
	fname, err := fileArg()
	if err != nil {
		return errors.Trace(err)
	}
	backend, err := flags.FlashLayout(false)
	if err != nil {
		return errors.Trace(err)
	}
	defer backend.Close()

	s, err := runSession(fname, backend)
	if err != nil {
		return errors.Trace(err)
	}
	defer s.ctx.Close()

	if s.stats.Written == 0 {
		ourutil.Warnf("Nothing was written: package has no data for scheme %s", s.ctx.Scheme())
		return nil
	}
	ourutil.Reportf("%s: %d blocks (%d ignored), %s written", color.GreenString("Done"),
		s.stats.Blocks, s.stats.Ignored, ourutil.HumanSize(s.stats.Written))
	for _, d := range backend.Devices() {
		if ff, ok := d.(*fal.FileFlash); ok {
			ourutil.Reportf("  %s: %s", ff.Name(), ff.Path())
		}
	}
	return nil
}
