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
package pflagenv

import (
	"strings"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/spf13/pflag"

	"github.com/libretiny-eu/ltchiptool/common/multierror"
)

// ParseFlagSet sets every flag that was not given on the command line from
// the environment variable EnvName(envPrefix, name), if that is set and not
// empty. Values that fail to parse are reported together.
//
// It should be called after Parse is called for the given FlagSet.
func ParseFlagSet(fs *pflag.FlagSet, envPrefix string, lookup func(string) (string, bool)) error {
	// Flags set on the command line win; pflag only tells them apart by
	// visiting set flags separately.
	nonset := map[string]*pflag.Flag{}
	fs.VisitAll(func(f *pflag.Flag) {
		nonset[f.Name] = f
	})
	fs.Visit(func(f *pflag.Flag) {
		delete(nonset, f.Name)
	})

	var errs error
	for name, f := range nonset {
		env := EnvName(envPrefix, name)
		v, ok := lookup(env)
		if !ok || v == "" {
			continue
		}
		if err := f.Value.Set(v); err != nil {
			errs = multierror.Append(errs, errors.Annotatef(err, "%s", env))
			continue
		}
		glog.V(1).Infof("--%s=%q from %s", name, v, env)
		f.Changed = true
	}
	return errs
}

// EnvName returns the environment variable for a flag: the flag name
// uppercased, with dashes replaced by underscores, prefixed with envPrefix.
func EnvName(envPrefix, flagName string) string {
	return envPrefix + strings.Replace(strings.ToUpper(flagName), "-", "_", -1)
}
