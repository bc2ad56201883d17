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
	"bytes"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/marcinbor85/gohex"

	"github.com/libretiny-eu/ltchiptool/cli/flags"
	"github.com/libretiny-eu/ltchiptool/cli/ourutil"
	"github.com/libretiny-eu/ltchiptool/common/fal"
	"github.com/libretiny-eu/ltchiptool/common/ourio"
)

func dump() error {
	fname, err := fileArg()
	if err != nil {
		return errors.Trace(err)
	}
	format := *flags.Format
	if format != "bin" && format != "hex" {
		return errors.NotValidf("format %q", format)
	}
	outDir := *flags.Output
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return errors.Trace(err)
	}

	backend, err := flags.FlashLayout(true)
	if err != nil {
		return errors.Trace(err)
	}
	defer backend.Close()

	s, err := runSession(fname, backend)
	if err != nil {
		return errors.Trace(err)
	}
	defer s.ctx.Close()

	// The package may have brought its own partition table.
	n := 0
	for _, p := range s.ctx.Partitions() {
		d := backend.FlashDevice(p.FlashName)
		if d == nil {
			continue
		}
		data, err := d.Read(p.Offset, p.Length)
		if err != nil {
			return errors.Annotatef(err, "%s", p.Name)
		}
		data = bytes.TrimRight(data, "\xff")
		if len(data) == 0 {
			continue
		}
		path := filepath.Join(outDir, p.Name+"."+format)
		if err := writeDump(path, format, &p, data); err != nil {
			return errors.Trace(err)
		}
		ourutil.Reportf("Writing %s to %s", ourutil.HumanSize(uint32(len(data))), path)
		n++
	}
	if n == 0 {
		ourutil.Warnf("Nothing was written: package has no data for scheme %s", s.ctx.Scheme())
		return nil
	}
	// Saved layout can be passed back with --layout.
	cfg := &fal.Config{Partitions: s.ctx.Partitions()}
	for _, d := range backend.Devices() {
		fc := fal.FlashConfig{Name: d.Name(), Size: d.Size()}
		if m, ok := d.(*fal.MemFlash); ok {
			fc.SectorSize = m.SectorSize()
		}
		cfg.Flash = append(cfg.Flash, fc)
	}
	data, err := cfg.Marshal()
	if err != nil {
		return errors.Trace(err)
	}
	path := filepath.Join(outDir, "layout.yaml")
	if _, err := ourio.WriteFileIfDifferent(path, data, 0644); err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Flash layout saved to %s", path)
	return nil
}

// writeDump saves partition contents. Intel HEX records carry the flash
// address of the data.
func writeDump(path, format string, p *fal.Partition, data []byte) error {
	if format == "hex" {
		mem := gohex.NewMemory()
		if err := mem.AddBinary(p.Offset, data); err != nil {
			return errors.Annotatef(err, "%s", p.Name)
		}
		buf := &bytes.Buffer{}
		if err := mem.DumpIntelHex(buf, 16); err != nil {
			return errors.Annotatef(err, "%s", p.Name)
		}
		data = buf.Bytes()
	}
	changed, err := ourio.WriteFileIfDifferent(path, data, 0644)
	if err != nil {
		return errors.Trace(err)
	}
	if !changed {
		glog.V(1).Infof("%s: not changed", path)
	}
	return nil
}
