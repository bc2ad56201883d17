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
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/juju/errors"

	"github.com/libretiny-eu/ltchiptool/cli/flags"
	"github.com/libretiny-eu/ltchiptool/common/fal"
	"github.com/libretiny-eu/ltchiptool/common/uf2"
	"github.com/libretiny-eu/ltchiptool/common/uf2ota"
)

// target is what a package writes for one scheme to one partition.
type target struct {
	part    string
	bytes   uint32
	patched int // blocks carrying a binary patch
}

type summary struct {
	header  []uf2.Tag
	blocks  int
	schemes []uf2ota.Scheme
	targets [uf2ota.NumSchemes][]*target
}

// summarize walks a package the way an update session would, for all
// schemes at once.
func summarize(blocks []*uf2.Block) (*summary, error) {
	if len(blocks) == 0 {
		return nil, errors.Errorf("empty package")
	}
	s := &summary{header: blocks[0].Tags(), blocks: len(blocks)}
	for _, t := range s.header {
		if t.Type == uf2.TagOTAPartList {
			s.schemes = uf2ota.DecodePartList(t.Data)
		}
	}

	var current [uf2ota.NumSchemes]*target
	for _, b := range blocks[1:] {
		patched := false
		for _, t := range b.Tags() {
			switch t.Type {
			case uf2.TagOTAPartInfo:
				names, err := uf2ota.DecodePartInfo(t.Data)
				if err != nil {
					return nil, errors.Annotatef(err, "block %d", b.Seq)
				}
				for i := range current {
					current[i] = nil
					if name, ok := names[uf2ota.Scheme(i)]; ok {
						current[i] = s.target(uf2ota.Scheme(i), name)
					}
				}
			case uf2.TagBinpatch:
				patched = true
			}
		}
		if b.NotMainFlash() || b.Len == 0 {
			continue
		}
		for i, t := range current {
			if t == nil {
				continue
			}
			t.bytes += b.Len
			if patched && uf2ota.Scheme(i).NeedsBinpatch() {
				t.patched++
			}
		}
	}
	return s, nil
}

func (s *summary) target(scheme uf2ota.Scheme, part string) *target {
	for _, t := range s.targets[scheme] {
		if t.part == part {
			return t
		}
	}
	t := &target{part: part}
	s.targets[scheme] = append(s.targets[scheme], t)
	return t
}

func info() error {
	fname, err := fileArg()
	if err != nil {
		return errors.Trace(err)
	}
	f, err := os.Open(fname)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()
	blocks, err := uf2.NewReader(f).ReadAll()
	if err != nil {
		return errors.Annotatef(err, "%s", fname)
	}
	s, err := summarize(blocks)
	if err != nil {
		return errors.Annotatef(err, "%s", fname)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fid, ok := blocks[0].FamilyID()
	if ok {
		fmt.Fprintf(w, "Family:\t%s\n", familyName(fid))
	}
	if *flags.Family != "" {
		want, err := parseFamily(*flags.Family)
		if err != nil {
			return errors.Trace(err)
		}
		if !ok || want != fid {
			fmt.Fprintf(w, "\t%s\n", color.RedString("does not match %s", familyName(want)))
		}
	}
	fmt.Fprintf(w, "Blocks:\t%d\n", s.blocks)
	for _, t := range s.header {
		fmt.Fprintf(w, "%s:\t%s\n", t.Type, formatTag(t))
	}

	fmt.Fprintf(w, "\nScheme\tSupported\tTargets\n")
	for i := uf2ota.Scheme(0); i < uf2ota.NumSchemes; i++ {
		supported := color.RedString("no")
		for _, sc := range s.schemes {
			if sc == i {
				supported = color.GreenString("yes")
			}
		}
		var targets []string
		for _, t := range s.targets[i] {
			desc := fmt.Sprintf("%s (%d bytes)", t.part, t.bytes)
			if t.patched > 0 {
				desc += fmt.Sprintf(", %d patched", t.patched)
			}
			targets = append(targets, desc)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", i, supported, strings.Join(targets, "; "))
	}
	return errors.Trace(w.Flush())
}

func formatTag(t uf2.Tag) string {
	switch t.Type {
	case uf2.TagBuildDate:
		if len(t.Data) == 4 {
			v := uint32(t.Data[0]) | uint32(t.Data[1])<<8 | uint32(t.Data[2])<<16 | uint32(t.Data[3])<<24
			return time.Unix(int64(v), 0).UTC().Format(time.RFC3339)
		}
	case uf2.TagOTAPartList:
		var names []string
		for _, s := range uf2ota.DecodePartList(t.Data) {
			names = append(names, s.String())
		}
		return strings.Join(names, ", ")
	case uf2.TagFALPTable:
		var parts []string
		for _, p := range fal.DecodeTable(t.Data) {
			parts = append(parts, p.String())
		}
		sort.Strings(parts)
		return strings.Join(parts, ", ")
	case uf2.TagOTAFormat1, uf2.TagOTAFormat2:
		return "present"
	}
	if len(t.Data) > 0 && printable(t.Data) {
		return fmt.Sprintf("%q", t.Data)
	}
	return fmt.Sprintf("% x", t.Data)
}

func printable(data []byte) bool {
	for _, c := range data {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
