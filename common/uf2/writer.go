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
package uf2

import (
	"io"

	"github.com/juju/errors"
)

const DefaultBlockDataSize = 256

// Writer assembles an UF2 stream: a header block carrying global tags,
// followed by data blocks. Blocks are kept in memory until WriteTo, since the
// total block count is part of every block.
type Writer struct {
	FamilyID uint32
	// BlockDataSize is the number of payload bytes stored in each data block.
	BlockDataSize int

	header []Tag
	blocks []*Block
}

func NewWriter(familyID uint32) *Writer {
	return &Writer{
		FamilyID:      familyID,
		BlockDataSize: DefaultBlockDataSize,
	}
}

// PutTag adds a tag to the header block. Tags with the same type are replaced.
func (w *Writer) PutTag(t TagType, data []byte) {
	for i := range w.header {
		if w.header[i].Type == t {
			w.header[i].Data = data
			return
		}
	}
	w.header = append(w.header, Tag{Type: t, Data: data})
}

func (w *Writer) PutString(t TagType, s string) {
	w.PutTag(t, []byte(s))
}

func (w *Writer) PutUint32(t TagType, v uint32) {
	w.PutTag(t, Uint32Tag(t, v).Data)
}

// Store splits data into blocks starting at addr. tags are attached to the
// first block only.
func (w *Writer) Store(addr uint32, data []byte, tags []Tag) error {
	if w.BlockDataSize <= 0 || w.BlockDataSize > DataSize {
		return errors.Errorf("invalid block data size %d", w.BlockDataSize)
	}
	for len(data) > 0 {
		n := w.BlockDataSize
		if n > len(data) {
			n = len(data)
		}
		b := NewBlock(uint32(len(w.blocks)+1), w.FamilyID)
		if err := b.SetPayload(addr, data[:n]); err != nil {
			return errors.Trace(err)
		}
		if err := b.SetTags(tags); err != nil {
			return errors.Annotatef(err, "block @ 0x%x", addr)
		}
		w.blocks = append(w.blocks, b)
		tags = nil
		addr += uint32(n)
		data = data[n:]
	}
	return nil
}

// StoreTags adds a data-less block carrying only tags.
func (w *Writer) StoreTags(tags []Tag) error {
	b := NewBlock(uint32(len(w.blocks)+1), w.FamilyID)
	if err := b.SetTags(tags); err != nil {
		return errors.Trace(err)
	}
	w.blocks = append(w.blocks, b)
	return nil
}

// Blocks returns the header block followed by the stored data blocks, with
// sequence numbers and block count filled in.
func (w *Writer) Blocks() ([]*Block, error) {
	header := NewBlock(0, w.FamilyID)
	if err := header.SetTags(w.header); err != nil {
		return nil, errors.Annotatef(err, "header")
	}
	header.Flags |= FlagHasTags
	blocks := append([]*Block{header}, w.blocks...)
	for i, b := range blocks {
		b.Seq = uint32(i)
		b.Count = uint32(len(blocks))
	}
	return blocks, nil
}

func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	blocks, err := w.Blocks()
	if err != nil {
		return 0, errors.Trace(err)
	}
	var total int64
	for _, b := range blocks {
		data, err := b.MarshalBinary()
		if err != nil {
			return total, errors.Trace(err)
		}
		n, err := out.Write(data)
		total += int64(n)
		if err != nil {
			return total, errors.Annotatef(err, "block %d", b.Seq)
		}
	}
	return total, nil
}
