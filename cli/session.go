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
	"os"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/libretiny-eu/ltchiptool/cli/flags"
	"github.com/libretiny-eu/ltchiptool/cli/ourutil"
	"github.com/libretiny-eu/ltchiptool/common/fal"
	"github.com/libretiny-eu/ltchiptool/common/uf2"
	"github.com/libretiny-eu/ltchiptool/common/uf2ota"
	"github.com/libretiny-eu/ltchiptool/version"
)

func fileArg() (string, error) {
	if flag.NArg() != 2 {
		return "", errors.Errorf("usage: %s %s FILE", os.Args[0], flag.Arg(0))
	}
	return flag.Arg(1), nil
}

// packageFamily returns the family given with --family, or the one of the
// header block.
func packageFamily(header *uf2.Block) (uint32, error) {
	if *flags.Family != "" {
		return parseFamily(*flags.Family)
	}
	fid, ok := header.FamilyID()
	if !ok {
		return 0, errors.Errorf("package has no family ID, please specify --family")
	}
	return fid, nil
}

// session is an update of a flash layout from a package file.
type session struct {
	ctx   *uf2ota.Context
	info  *uf2ota.Info
	stats *uf2ota.Stats
}

// runSession applies the package fname to backend. The returned session's
// context must be closed by the caller.
func runSession(fname string, backend *fal.Registry) (*session, error) {
	scheme, err := flags.OTAScheme()
	if err != nil {
		return nil, errors.Trace(err)
	}
	f, err := os.Open(fname)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()

	header, err := uf2.NewReader(f).Next()
	if err != nil {
		return nil, errors.Annotatef(err, "%s: failed to read header", fname)
	}
	fid, err := packageFamily(header)
	if err != nil {
		return nil, errors.Trace(err)
	}

	s := &session{
		ctx:  uf2ota.NewContext(scheme, fid, backend),
		info: uf2ota.NewInfo(),
	}
	if err := s.ctx.Feed(header, s.info); err != nil {
		s.ctx.Close()
		return nil, errors.Annotatef(err, "%s", fname)
	}
	reportInfo(s.info)
	if err := checkLTVersion(s.info.LTVersion); err != nil {
		s.ctx.Close()
		return nil, errors.Trace(err)
	}

	ourutil.Reportf("Applying %s (scheme %s, family %s)...", fname, scheme, familyName(fid))
	s.stats, err = uf2ota.Update(s.ctx, f, s.info)
	if err != nil {
		s.ctx.Close()
		return nil, errors.Annotatef(err, "%s", fname)
	}
	// The header is not counted by Update.
	s.stats.Blocks++
	glog.V(1).Infof("%s: %+v", fname, *s.stats)
	return s, nil
}

func checkLTVersion(v string) error {
	min := *flags.MinLTVersion
	if min == "" {
		return nil
	}
	if !version.AtLeast(v, min) {
		return errors.Errorf("package LibreTiny version %q is older than %s", v, min)
	}
	return nil
}

func reportInfo(info *uf2ota.Info) {
	if info.FirmwareName != "" {
		ourutil.Reportf("Firmware: %s %s", color.CyanString(info.FirmwareName), info.FirmwareVersion)
	}
	if info.Board != "" {
		ourutil.Reportf("Board: %s", info.Board)
	}
	if info.LTVersion != "" {
		ourutil.Reportf("LibreTiny: %s", info.LTVersion)
	}
	if !info.BuildDate.IsZero() {
		ourutil.Reportf("Built: %s", info.BuildDate.Format("2006-01-02 15:04:05 MST"))
	}
}
