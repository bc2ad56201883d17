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
package fal

import (
	"io/ioutil"
	"path/filepath"

	"github.com/juju/errors"
	yaml "gopkg.in/yaml.v2"
)

// Config describes a flash layout:
//
//	flash:
//	  - name: flash0
//	    size: 0x200000
//	    sector_size: 0x1000
//	    image: flash.bin
//	partitions:
//	  - name: app
//	    flash: flash0
//	    offset: 0x11000
//	    length: 0x121000
//
// Devices without an image are kept in memory.
type Config struct {
	Flash      []FlashConfig `yaml:"flash"`
	Partitions []Partition   `yaml:"partitions"`

	dir string
}

type FlashConfig struct {
	Name       string `yaml:"name"`
	Size       uint32 `yaml:"size"`
	SectorSize uint32 `yaml:"sector_size,omitempty"`
	Image      string `yaml:"image,omitempty"`
}

const DefaultSectorSize = 0x1000

// ParseConfig parses a YAML layout. Relative image paths are resolved
// against dir.
func ParseConfig(data []byte, dir string) (*Config, error) {
	c := &Config{dir: dir}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Annotatef(err, "invalid flash layout")
	}
	if len(c.Flash) == 0 {
		return nil, errors.Errorf("no flash devices defined")
	}
	for i := range c.Flash {
		fc := &c.Flash[i]
		if fc.Name == "" || fc.Size == 0 {
			return nil, errors.Errorf("flash device %d: name and size are required", i)
		}
		if fc.SectorSize == 0 {
			fc.SectorSize = DefaultSectorSize
		}
	}
	return c, nil
}

func LoadConfig(fname string) (*Config, error) {
	data, err := ioutil.ReadFile(fname)
	if err != nil {
		return nil, errors.Annotatef(err, "LoadConfig(%s)", fname)
	}
	c, err := ParseConfig(data, filepath.Dir(fname))
	return c, errors.Annotatef(err, "LoadConfig(%s)", fname)
}

// Open creates the devices. If inMemory is set, image files are ignored.
func (c *Config) Open(inMemory bool) (*Registry, error) {
	r := NewRegistry(c.Partitions)
	for _, fc := range c.Flash {
		var d Device
		if fc.Image == "" || inMemory {
			d = NewMemFlash(fc.Name, fc.Size, fc.SectorSize)
		} else {
			path := fc.Image
			if !filepath.IsAbs(path) {
				path = filepath.Join(c.dir, path)
			}
			ff, err := OpenFileFlash(fc.Name, path, fc.Size, fc.SectorSize)
			if err != nil {
				r.Close()
				return nil, errors.Trace(err)
			}
			d = ff
		}
		r.devices = append(r.devices, d)
	}
	if err := r.Validate(); err != nil {
		r.Close()
		return nil, errors.Trace(err)
	}
	return r, nil
}

func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	return data, errors.Trace(err)
}
