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
package ourio

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

// WriteFileIfDifferent writes data to filename unless it already holds the
// same contents, creating parent directories as needed. The new contents
// replace the old ones atomically. Returns true if the file was written.
func WriteFileIfDifferent(filename string, data []byte, perm os.FileMode) (bool, error) {
	exData, err := ioutil.ReadFile(filename)
	if err == nil && bytes.Equal(exData, data) {
		return false, nil
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, errors.Trace(err)
	}
	tmp, err := ioutil.TempFile(dir, "."+filepath.Base(filename)+".")
	if err != nil {
		return false, errors.Trace(err)
	}
	tmpName := tmp.Name()
	_, err = tmp.Write(data)
	if err2 := tmp.Close(); err == nil {
		err = err2
	}
	if err == nil {
		err = os.Chmod(tmpName, perm)
	}
	if err == nil {
		err = os.Rename(tmpName, filename)
	}
	if err != nil {
		os.Remove(tmpName)
		return false, errors.Annotatef(err, "%s", filename)
	}
	return true, nil
}
