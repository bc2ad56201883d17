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
package version

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"

	goversion "github.com/mcuadros/go-version"
)

const (
	LatestVersionName = "latest"
)

var (
	regexpVersionNumber = regexp.MustCompile(`^v?\d+\.[0-9.]*$`)
)

// GetVersion returns this binary's version, or "latest" if it's not a release build.
func GetVersion() string {
	if LooksLikeVersionNumber(Version) {
		return Version
	}
	return LatestVersionName
}

func LooksLikeVersionNumber(s string) bool {
	return regexpVersionNumber.MatchString(s)
}

// AtLeast reports whether version v is not older than min. A v that does not
// look like a version number (e.g. a development build) never satisfies it.
func AtLeast(v, min string) bool {
	v = strings.TrimPrefix(v, "v")
	if !LooksLikeVersionNumber(v) {
		return false
	}
	return goversion.Compare(v, strings.TrimPrefix(min, "v"), ">=")
}

func GetUserAgent() string {
	return fmt.Sprintf("ltchiptool-uf2/%s %s (%s; %s)", Version, BuildId, runtime.GOOS, runtime.GOARCH)
}
