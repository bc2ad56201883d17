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

// Package uf2ota applies LibreTiny UF2 OTA packages to flash, one block at a
// time.
//
// A Context holds the state of a single update. Blocks must be fed in order,
// from a single goroutine:
//
//	ctx := uf2ota.NewContext(uf2ota.SchemeDeviceDual1, familyID, backend)
//	defer ctx.Close()
//	for each block {
//		if err := ctx.Feed(block, info); !uf2ota.IsValid(err) {
//			return err
//		}
//	}
package uf2ota

import (
	"github.com/golang/glog"

	"github.com/libretiny-eu/ltchiptool/common/binpatch"
	"github.com/libretiny-eu/ltchiptool/common/fal"
)

// Backend provides the partition table and flash devices to write to.
type Backend interface {
	PartitionTable() []fal.Partition
	// FlashDevice returns the device with the given name, or nil.
	FlashDevice(name string) fal.Device
}

// Patcher applies a binary patch to block data in place.
type Patcher func(data, patch []byte) error

type Option func(*Context)

// WithPatcher replaces the default binary patch routine.
func WithPatcher(p Patcher) Option {
	return func(ctx *Context) {
		ctx.patch = p
	}
}

// partTable is the partition table used for lookups: either the backend's
// own table, or one supplied by the package in a FAL_PTABLE tag.
type partTable interface {
	partitions() []fal.Partition
}

type borrowedTable []fal.Partition

func (t borrowedTable) partitions() []fal.Partition { return t }

type ownedTable struct {
	raw   []byte
	parts []fal.Partition
}

func (t *ownedTable) partitions() []fal.Partition { return t.parts }

// Context is the state of an update session. It is not safe for concurrent
// use.
type Context struct {
	scheme   Scheme
	familyID uint32
	backend  Backend
	patch    Patcher

	seq      uint32 // expected sequence number of the next block
	written  uint32
	formatOK bool // compatible format tag found
	partSet  bool // OTA_PART_INFO found

	// Borrowed view into the current block's data, valid for that block only.
	binpatch []byte

	schemeIndex    int
	schemeShift    uint
	schemeBinpatch bool

	erasedOffset uint32
	erasedLength uint32

	table partTable
	part  *fal.Partition
	flash fal.Device
}

func NewContext(scheme Scheme, familyID uint32, backend Backend, opts ...Option) *Context {
	if !scheme.Valid() {
		panic("invalid OTA scheme")
	}
	ctx := &Context{
		scheme:   scheme,
		familyID: familyID,
		backend:  backend,
		patch:    binpatch.Apply,
		table:    borrowedTable(backend.PartitionTable()),
	}
	ctx.schemeIndex, ctx.schemeShift = scheme.Nibble()
	ctx.schemeBinpatch = scheme.NeedsBinpatch()
	for _, opt := range opts {
		opt(ctx)
	}
	glog.V(1).Infof("OTA session: scheme %s, family 0x%08X", scheme, familyID)
	return ctx
}

// Close releases a package-supplied partition table and restores the
// backend's one. The context must not be used afterwards.
func (ctx *Context) Close() {
	if _, ok := ctx.table.(*ownedTable); ok {
		glog.V(1).Infof("Restoring backend partition table")
		ctx.table = borrowedTable(ctx.backend.PartitionTable())
	}
	ctx.part = nil
	ctx.flash = nil
	ctx.binpatch = nil
}

func (ctx *Context) Scheme() Scheme   { return ctx.scheme }
func (ctx *Context) FamilyID() uint32 { return ctx.familyID }

// Seq returns the sequence number expected next.
func (ctx *Context) Seq() uint32 { return ctx.seq }

// Written returns the number of bytes written to flash so far.
func (ctx *Context) Written() uint32 { return ctx.written }

// Partition returns the current target partition, or nil.
func (ctx *Context) Partition() *fal.Partition { return ctx.part }

// Partitions returns the partition table in use.
func (ctx *Context) Partitions() []fal.Partition { return ctx.table.partitions() }

// OwnsPartitionTable reports whether the table in use came from the package.
func (ctx *Context) OwnsPartitionTable() bool {
	_, ok := ctx.table.(*ownedTable)
	return ok
}

func (ctx *Context) isErased(offset, length uint32) bool {
	end := uint64(offset) + uint64(length)
	erasedEnd := uint64(ctx.erasedOffset) + uint64(ctx.erasedLength)
	return offset >= ctx.erasedOffset && end <= erasedEnd
}
