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
	"hash/crc32"
	"io/ioutil"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/marcinbor85/gohex"
	flag "github.com/spf13/pflag"

	"github.com/libretiny-eu/ltchiptool/cli/flags"
	"github.com/libretiny-eu/ltchiptool/cli/ourutil"
	"github.com/libretiny-eu/ltchiptool/common/binpatch"
	"github.com/libretiny-eu/ltchiptool/common/fal"
	"github.com/libretiny-eu/ltchiptool/common/ourio"
	"github.com/libretiny-eu/ltchiptool/common/uf2"
	"github.com/libretiny-eu/ltchiptool/common/uf2ota"
)

// input is a package image: part[+offset];file[;part2[+offset];file2].
// The first pair is written by single and first-slot OTA, the second one by
// second-slot OTA. With a single pair, it is used for all schemes.
type input struct {
	part1, file1 string
	offs1        uint32
	part2, file2 string
	offs2        uint32
}

func parseInput(s string) (*input, error) {
	fields := strings.Split(s, ";")
	switch len(fields) {
	case 2:
		fields = append(fields, fields...)
	case 4:
	default:
		return nil, errors.Errorf("%q: expected part[+offset];file[;part[+offset];file]", s)
	}
	in := &input{}
	var err error
	if in.part1, in.offs1, err = parsePartOffset(fields[0]); err != nil {
		return nil, errors.Annotatef(err, "%q", s)
	}
	if in.part2, in.offs2, err = parsePartOffset(fields[2]); err != nil {
		return nil, errors.Annotatef(err, "%q", s)
	}
	if in.part1 != "" {
		in.file1 = fields[1]
	}
	if in.part2 != "" {
		in.file2 = fields[3]
	}
	if !in.has1() && !in.has2() {
		return nil, errors.Errorf("%q: no image", s)
	}
	if in.has1() && in.has2() && in.offs1 != in.offs2 {
		return nil, errors.Errorf("%q: offsets cannot differ", s)
	}
	return in, nil
}

var partOffsetRegexp = regexp.MustCompile(`^(?P<part>[^+]*)(?:\+(?P<offset>.*))?$`)

func parsePartOffset(s string) (string, uint32, error) {
	m := ourutil.FindNamedSubmatches(partOffsetRegexp, s)
	if !strings.Contains(s, "+") {
		return m["part"], 0, nil
	}
	offs, err := strconv.ParseUint(m["offset"], 0, 32)
	if err != nil {
		return "", 0, errors.NotValidf("offset %q", m["offset"])
	}
	return m["part"], uint32(offs), nil
}

func (in *input) has1() bool { return in.part1 != "" && in.file1 != "" }
func (in *input) has2() bool { return in.part2 != "" && in.file2 != "" }

func (in *input) offset() uint32 {
	if in.has1() {
		return in.offs1
	}
	return in.offs2
}

func (in *input) targets() map[uf2ota.Scheme]string {
	t := map[uf2ota.Scheme]string{}
	if in.has1() {
		t[uf2ota.SchemeDeviceSingle] = in.part1
		t[uf2ota.SchemeDeviceDual1] = in.part1
		t[uf2ota.SchemeFlasherSingle] = in.part1
		t[uf2ota.SchemeFlasherDual1] = in.part1
	}
	if in.has2() {
		t[uf2ota.SchemeDeviceDual2] = in.part2
		t[uf2ota.SchemeFlasherDual2] = in.part2
	}
	return t
}

// store adds the image blocks to w. When both slots have different images,
// the first one is stored and every block gets a binary patch producing the
// second one.
func (in *input) store(w *uf2.Writer, readFile func(string) ([]byte, error)) error {
	info, err := uf2ota.EncodePartInfo(in.targets())
	if err != nil {
		return errors.Trace(err)
	}
	tags := []uf2.Tag{{Type: uf2.TagOTAPartInfo, Data: info}}

	if !in.has1() || !in.has2() || in.file1 == in.file2 {
		fname := in.file1
		if !in.has1() {
			fname = in.file2
		}
		data, err := readFile(fname)
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Annotatef(w.Store(in.offset(), data, tags), "%s", fname)
	}

	data1, err := readFile(in.file1)
	if err != nil {
		return errors.Trace(err)
	}
	data2, err := readFile(in.file2)
	if err != nil {
		return errors.Trace(err)
	}
	if len(data1) != len(data2) {
		return errors.Errorf("%s, %s: images must have the same length (%d vs %d)",
			in.file1, in.file2, len(data1), len(data2))
	}
	for i := 0; i < len(data1); i += w.BlockDataSize {
		end := i + w.BlockDataSize
		if end > len(data1) {
			end = len(data1)
		}
		patch, err := binpatch.Diff(data1[i:end], data2[i:end])
		if err != nil {
			return errors.Annotatef(err, "%s @ 0x%x", in.file2, i)
		}
		if len(patch) > 0 {
			tags = append(tags, uf2.Tag{Type: uf2.TagBinpatch, Data: patch})
		}
		addr := in.offset() + uint32(i)
		if err := w.Store(addr, data1[i:end], tags); err != nil {
			return errors.Annotatef(err, "%s @ 0x%x", in.file1, i)
		}
		tags = nil
	}
	return nil
}

// readImage reads a raw binary, or an Intel HEX file flattened from its
// lowest address with gaps filled with 0xFF.
func readImage(fname string) ([]byte, error) {
	data, err := ioutil.ReadFile(fname)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !strings.HasSuffix(strings.ToLower(fname), ".hex") {
		return data, nil
	}
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(bytes.NewReader(data)); err != nil {
		return nil, errors.Annotatef(err, "%s", fname)
	}
	segs := mem.GetDataSegments()
	if len(segs) == 0 {
		return nil, errors.Errorf("%s: no data", fname)
	}
	start := segs[0].Address
	last := segs[len(segs)-1]
	end := last.Address + uint32(len(last.Data))
	glog.V(1).Infof("%s: %d segments, 0x%x-0x%x", fname, len(segs), start, end)
	return mem.ToBinary(start, end-start, 0xFF), nil
}

func putHeader(w *uf2.Writer, inputs []*input) {
	w.PutTag(uf2.TagOTAFormat2, nil)
	device := *flags.Device
	if device == "" {
		device = "LibreTiny"
	}
	w.PutString(uf2.TagDevice, device)
	if *flags.Board != "" {
		board := strings.ToLower(*flags.Board)
		w.PutString(uf2.TagBoard, board)
		w.PutUint32(uf2.TagDeviceID, crc32.ChecksumIEEE([]byte(device+" "+board)))
	}
	if *flags.LTVersion != "" {
		w.PutString(uf2.TagLTVersion, *flags.LTVersion)
	}
	if fw := *flags.Firmware; fw != "" {
		parts := strings.SplitN(fw, ":", 2)
		w.PutString(uf2.TagFirmware, parts[0])
		if len(parts) == 2 {
			w.PutString(uf2.TagVersion, parts[1])
		}
	}
	date := *flags.BuildDate
	if date == 0 {
		date = time.Now().Unix()
	}
	w.PutUint32(uf2.TagBuildDate, uint32(date))

	var schemes []uf2ota.Scheme
	for s := uf2ota.Scheme(0); s < uf2ota.NumSchemes; s++ {
		for _, in := range inputs {
			if _, ok := in.targets()[s]; ok {
				schemes = append(schemes, s)
				break
			}
		}
	}
	w.PutTag(uf2.TagOTAPartList, uf2ota.EncodePartList(schemes...))
}

// putPartitionTable embeds the table of the --layout file, after checking
// that it has all partitions the images refer to.
func putPartitionTable(w *uf2.Writer, parts []fal.Partition, inputs []*input) error {
	for _, in := range inputs {
		for _, name := range in.targets() {
			if fal.FindPartition(parts, name) == nil {
				return errors.NotFoundf("partition %q", name)
			}
		}
	}
	raw, err := fal.EncodeTable(parts)
	if err != nil {
		return errors.Trace(err)
	}
	if len(raw) > uf2.MaxTagData {
		return errors.Errorf("partition table too long (%d partitions)", len(parts))
	}
	w.PutTag(uf2.TagFALPTable, raw)
	return nil
}

func pack() error {
	if flag.NArg() < 2 {
		return errors.Errorf("no images given")
	}
	fid, err := parseFamily(*flags.Family)
	if err != nil {
		return errors.Trace(err)
	}
	var inputs []*input
	for _, arg := range flag.Args()[1:] {
		in, err := parseInput(arg)
		if err != nil {
			return errors.Trace(err)
		}
		inputs = append(inputs, in)
	}

	w := uf2.NewWriter(fid)
	w.BlockDataSize = *flags.BlockSize
	putHeader(w, inputs)
	if *flags.Layout != "" {
		cfg, err := fal.LoadConfig(*flags.Layout)
		if err != nil {
			return errors.Trace(err)
		}
		if err := putPartitionTable(w, cfg.Partitions, inputs); err != nil {
			return errors.Annotatef(err, "%s", *flags.Layout)
		}
	}
	for _, in := range inputs {
		if err := in.store(w, readImage); err != nil {
			return errors.Trace(err)
		}
	}

	buf := &bytes.Buffer{}
	n, err := w.WriteTo(buf)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := ourio.WriteFileIfDifferent(*flags.Output, buf.Bytes(), 0644); err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Wrote %s (%d blocks, family %s)", *flags.Output, n/uf2.BlockSize, familyName(fid))
	return nil
}
