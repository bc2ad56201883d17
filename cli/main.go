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

	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/libretiny-eu/ltchiptool/common/pflagenv"
	"github.com/libretiny-eu/ltchiptool/version"
)

const (
	envPrefix = "LTCHIPTOOL_"
)

var (
	versionFlag = flag.Bool("version", false, "Print version and exit")
	helpFull    = flag.Bool("helpfull", false, "Show full help, including advanced flags")
)

var (
	// put all commands here
	commands = []command{
		{"info", info, `Print information about an UF2 OTA package`, []string{}, []string{"family"}},
		{"flash", flash, `Apply an UF2 OTA package to a flash layout`, []string{"layout"}, []string{"scheme", "family", "min-lt-version", "in-memory"}},
		{"dump", dump, `Apply an UF2 OTA package in memory and save the written partitions`, []string{"layout"}, []string{"scheme", "family", "output", "format"}},
		{"pack", pack, `Create an UF2 OTA package from binary images`, []string{"family", "output"}, []string{"board", "fw", "lt-version", "build-date", "device", "layout", "block-size"}},
	}
)

type command struct {
	name     string
	handler  handler
	short    string
	required []string
	optional []string
}

type handler func() error

func run() error {
	for _, c := range commands {
		if c.name == flag.Arg(0) {
			// check required flags
			if err := checkFlags(c.required); err != nil {
				return errors.Trace(err)
			}
			// run the handler
			if err := c.handler(); err != nil {
				return errors.Trace(err)
			}
			return nil
		}
	}
	// not found
	usage()
	return nil
}

func main() {
	initFlags()
	flag.Parse()
	if err := pflagenv.ParseFlagSet(flag.CommandLine, envPrefix, os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if *helpFull {
		unhideFlags()
		usage()
		return
	} else if *versionFlag {
		fmt.Printf(
			"%s\nVersion: %s\nBuild ID: %s\n",
			"LibreTiny UF2 OTA tool", version.Version, version.BuildId,
		)
		return
	}

	if err := run(); err != nil {
		glog.Infof("Error: %+v", err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
