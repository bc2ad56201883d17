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
	"io"

	"github.com/juju/errors"

	"github.com/libretiny-eu/ltchiptool/common/uf2"
)

// Stats summarizes an update run by Update.
type Stats struct {
	Blocks  int
	Ignored int
	Written uint32
}

// Update feeds all blocks read from r to ctx. It stops at the first block
// which is not valid; the returned error then has the block's outcome as its
// cause.
func Update(ctx *Context, r io.Reader, info *Info) (*Stats, error) {
	st := &Stats{}
	ur := uf2.NewReader(r)
	for {
		b, err := ur.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return st, errors.Trace(err)
		}
		st.Blocks++
		err = ctx.Feed(b, info)
		st.Written = ctx.Written()
		switch {
		case err == nil:
		case errors.Cause(err) == ErrIgnore:
			st.Ignored++
		default:
			return st, errors.Annotatef(err, "block %d", b.Seq)
		}
	}
	return st, nil
}
