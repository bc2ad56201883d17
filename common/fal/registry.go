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
	"io"

	"github.com/juju/errors"

	"github.com/libretiny-eu/ltchiptool/common/multierror"
)

// Registry holds the partition table and the flash devices it refers to.
type Registry struct {
	table   []Partition
	devices []Device
}

func NewRegistry(table []Partition, devices ...Device) *Registry {
	return &Registry{table: table, devices: devices}
}

// PartitionTable returns the table. The slice is shared, not copied.
func (r *Registry) PartitionTable() []Partition {
	return r.table
}

// FlashDevice returns the device with the given name, or nil.
func (r *Registry) FlashDevice(name string) Device {
	for _, d := range r.devices {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

func (r *Registry) Devices() []Device {
	return r.devices
}

func (r *Registry) Partition(name string) *Partition {
	return FindPartition(r.table, name)
}

// ReadPartition returns the contents of a partition.
func (r *Registry) ReadPartition(name string) ([]byte, error) {
	p := r.Partition(name)
	if p == nil {
		return nil, errors.NotFoundf("partition %q", name)
	}
	d := r.FlashDevice(p.FlashName)
	if d == nil {
		return nil, errors.NotFoundf("flash device %q of partition %q", p.FlashName, p.Name)
	}
	data, err := d.Read(p.Offset, p.Length)
	return data, errors.Annotatef(err, "partition %q", name)
}

// Validate checks that all partitions fit in their devices.
func (r *Registry) Validate() error {
	var errs error
	for i := range r.table {
		p := &r.table[i]
		d := r.FlashDevice(p.FlashName)
		if d == nil {
			errs = multierror.Append(errs, errors.Errorf("%s: unknown flash device %q", p.Name, p.FlashName))
			continue
		}
		if uint64(p.Offset)+uint64(p.Length) > uint64(d.Size()) {
			errs = multierror.Append(errs, errors.Errorf("%s: does not fit in %s (size 0x%x)", p, d.Name(), d.Size()))
		}
	}
	return errs
}

// Close closes all devices that need closing.
func (r *Registry) Close() error {
	var errs error
	for _, d := range r.devices {
		if c, ok := d.(io.Closer); ok {
			errs = multierror.Append(errs, c.Close())
		}
	}
	return errs
}
