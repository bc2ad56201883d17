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

// Reader reads consecutive blocks from an UF2 stream.
type Reader struct {
	r   io.Reader
	buf [BlockSize]byte
	n   int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next block, or io.EOF at a clean end of stream.
func (r *Reader) Next() (*Block, error) {
	n, err := io.ReadFull(r.r, r.buf[:])
	switch {
	case err == io.EOF:
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF:
		return nil, errors.Errorf("block %d truncated (%d bytes)", r.n, n)
	case err != nil:
		return nil, errors.Annotatef(err, "block %d", r.n)
	}
	b, err := ParseBlock(r.buf[:])
	if err != nil {
		return nil, errors.Trace(err)
	}
	r.n++
	return b, nil
}

// ReadAll reads all remaining blocks.
func (r *Reader) ReadAll() ([]*Block, error) {
	var blocks []*Block
	for {
		b, err := r.Next()
		if err == io.EOF {
			return blocks, nil
		}
		if err != nil {
			return nil, errors.Trace(err)
		}
		blocks = append(blocks, b)
	}
}
