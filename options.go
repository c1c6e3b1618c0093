// Copyright 2024 The Cockroach Authors
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

package openaddr

import "log/slog"

// option provide an interface to do work on Map while it is being created.
// Values are validated by New after every option has been applied.
type option interface {
	apply(m *Map)
}

type initialCapacityOption int

func (op initialCapacityOption) apply(m *Map) {
	m.capacity = int(op)
}

// WithInitialCapacity is an option to specify the number of slots a Map
// starts out with. It must be > 0; values above the maximum capacity are
// clamped.
func WithInitialCapacity(capacity int) option {
	return initialCapacityOption(capacity)
}

type loadFactorOption float64

func (op loadFactorOption) apply(m *Map) {
	m.loadFactor = float64(op)
}

// WithLoadFactor is an option to specify the fraction of occupied slots at
// which a Map grows. It must be in (0, 1).
func WithLoadFactor(loadFactor float64) option {
	return loadFactorOption(loadFactor)
}

type growthMultiplierOption float64

func (op growthMultiplierOption) apply(m *Map) {
	m.growthMultiplier = float64(op)
}

// WithGrowthMultiplier is an option to specify the factor the capacity is
// multiplied by when a Map grows. It must be in (1, 2].
func WithGrowthMultiplier(multiplier float64) option {
	return growthMultiplierOption(multiplier)
}

type maxCapacityOption int

func (op maxCapacityOption) apply(m *Map) {
	m.maxCapacity = int(op)
}

// WithMaxCapacity is an option to lower the capacity beyond which a Map
// refuses to grow. It must be in (0, MaxCapacity].
func WithMaxCapacity(capacity int) option {
	return maxCapacityOption(capacity)
}

type bucketOption struct {
	bucket BucketFunc
}

func (op bucketOption) apply(m *Map) {
	m.bucket = op.bucket
}

// WithBucketFunc is an option to specify the function used to compute the
// home bucket of a key. The default is MultiplicativeBucket.
func WithBucketFunc(bucket BucketFunc) option {
	return bucketOption{bucket}
}

type loggerOption struct {
	logger *slog.Logger
}

func (op loggerOption) apply(m *Map) {
	m.logger = op.logger
}

// WithLogger is an option to send debug records for every Put, Get miss and
// resize to logger. Logging is disabled by default.
func WithLogger(logger *slog.Logger) option {
	return loggerOption{logger}
}

// Allocator specifies an interface for allocating and releasing memory used
// by a Map. The default allocator utilizes Go's builtin make() and allows the
// GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that slots be
// freed then Map.Close must be called in order to ensure FreeSlots is called.
type Allocator interface {
	// AllocSlots should return a slice equivalent to make([]Slot, n).
	AllocSlots(n int) []Slot

	// FreeSlots can optional release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by AllocSlots.
	FreeSlots(v []Slot)
}

type defaultAllocator struct{}

func (defaultAllocator) AllocSlots(n int) []Slot {
	return make([]Slot, n)
}

func (defaultAllocator) FreeSlots(v []Slot) {
}

type allocatorOption struct {
	allocator Allocator
}

func (op allocatorOption) apply(m *Map) {
	m.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a Map.
func WithAllocator(allocator Allocator) option {
	return allocatorOption{allocator}
}
