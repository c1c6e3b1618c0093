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

// package openaddr is a Go implementation of a classic open-addressing hash
// table mapping int32 keys to int64 values. See
// https://en.wikipedia.org/wiki/Open_addressing and
// https://en.wikipedia.org/wiki/Linear_probing.
//
// # Layout
//
// A Map is a single flat slice of slots. Each slot holds a key, a value and
// an occupied flag, so the key, value and occupancy of slot i are always
// index-aligned. There are no tombstones: the Map does not support deletion
// and every occupied slot is a live entry until the table is resized.
//
// # Hashing and probing
//
// The home bucket of a key is computed by a BucketFunc. The default is
// Knuth's multiplicative method:
//
//	bucket(k) = |floor(capacity * frac(k * A))|,  A = (sqrt(5)-1)/2
//
// which spreads sequential and clustered integer keys across the table much
// better than k mod capacity. Collisions are resolved with linear probing:
// starting at the home bucket we walk forward one slot at a time, wrapping
// to 0 at capacity, until we find either the key or an empty slot.
//
// # Growth
//
// The threshold of a Map is floor(capacity * loadFactor). Before every Put
// the number of occupied slots is compared against the threshold and, if it
// has been reached, the table is rebuilt at capacity*growthMultiplier and
// every entry is re-inserted in ascending slot order before the pending
// entry is put. Because loadFactor < 1 the threshold is always below the
// capacity, so there is always at least one empty slot and search sequences
// always terminate.
package openaddr

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	defaultInitialCapacity  = 16
	defaultLoadFactor       = 0.7
	defaultGrowthMultiplier = 2.0

	// MaxCapacity is the largest number of slots a Map will ever allocate.
	// A Put that would need to grow a Map beyond its maximum capacity fails
	// with ErrCapacityExhausted.
	MaxCapacity = 1 << 30
)

// Slot holds a key, a value and whether the slot is in use. The flag sits in
// the padding after key so a Slot is 16 bytes.
type Slot struct {
	key      int32
	occupied bool
	value    int64
}

// Map is an unordered map from int32 keys to int64 values with Put, Get and
// All operations. Collisions are resolved with linear probing and the table
// grows by rehashing every entry into a larger slice of slots.
//
// A Map is NOT goroutine-safe.
type Map struct {
	// bucket computes the home bucket of a key.
	bucket BucketFunc
	// The allocator to use for the slots slice.
	allocator Allocator
	// logger receives debug records for every operation. A nil logger
	// disables logging.
	logger *slog.Logger
	// slots is capacity in length.
	slots []Slot
	// The total number of slots.
	capacity int
	// The number of occupied slots (i.e. the number of elements in the map).
	used int
	// The number of occupied slots at which the next Put grows the table.
	threshold int
	// loadFactor and growthMultiplier are fixed at construction and survive
	// every resize.
	loadFactor       float64
	growthMultiplier float64
	maxCapacity      int
	// The number of completed resizes.
	resizes int
}

// New constructs a new Map. With no options the Map starts out with 16
// slots, a load factor of 0.7 and a growth multiplier of 2. An error
// wrapping ErrInvalidArgument is returned if any option is out of range.
func New(options ...option) (*Map, error) {
	m := &Map{
		bucket:           MultiplicativeBucket,
		allocator:        defaultAllocator{},
		capacity:         defaultInitialCapacity,
		loadFactor:       defaultLoadFactor,
		growthMultiplier: defaultGrowthMultiplier,
		maxCapacity:      MaxCapacity,
	}

	for _, op := range options {
		op.apply(m)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}

	initialCapacity := min(m.capacity, m.maxCapacity)
	m.init(initialCapacity)

	if m.logger != nil {
		m.logger.Debug("created map",
			"capacity", m.capacity,
			"load_factor", m.loadFactor,
			"growth_multiplier", m.growthMultiplier,
			"threshold", m.threshold,
		)
	}
	m.checkInvariants()
	return m, nil
}

func (m *Map) validate() error {
	if m.capacity <= 0 {
		return fmt.Errorf("%w: initial capacity must be > 0, got %d", ErrInvalidArgument, m.capacity)
	}
	if m.maxCapacity <= 0 || m.maxCapacity > MaxCapacity {
		return fmt.Errorf("%w: max capacity must be in (0, %d], got %d",
			ErrInvalidArgument, MaxCapacity, m.maxCapacity)
	}
	if !(m.loadFactor > 0 && m.loadFactor < 1) {
		return fmt.Errorf("%w: load factor must be in (0, 1), got %v", ErrInvalidArgument, m.loadFactor)
	}
	if !(m.growthMultiplier > 1 && m.growthMultiplier <= 2) {
		return fmt.Errorf("%w: growth multiplier must be in (1, 2], got %v",
			ErrInvalidArgument, m.growthMultiplier)
	}
	if m.bucket == nil {
		return fmt.Errorf("%w: nil bucket function", ErrInvalidArgument)
	}
	if m.allocator == nil {
		return fmt.Errorf("%w: nil allocator", ErrInvalidArgument)
	}
	return nil
}

// init allocates an empty slots slice of the given capacity and resets the
// size and threshold. The previous slots, if any, are left to the caller.
func (m *Map) init(capacity int) {
	m.slots = m.allocator.AllocSlots(capacity)
	clear(m.slots)
	m.capacity = capacity
	m.used = 0
	m.threshold = m.thresholdFor(capacity)
}

func (m *Map) thresholdFor(capacity int) int {
	return int(float64(capacity) * m.loadFactor)
}

// Close closes the map, releasing its slots back to the configured
// allocator. It is unnecessary to close a map using the default allocator. It
// is invalid to use a Map after it has been closed, though Close itself is
// idempotent.
func (m *Map) Close() {
	if m.slots != nil {
		m.allocator.FreeSlots(m.slots)
	}
	m.slots = nil
	m.capacity = 0
	m.used = 0
	m.threshold = 0
}

// Put inserts an entry into the map, overwriting the value of an existing
// entry with the same key. If the key was already present the previous value
// is returned with replaced=true. If the map has to grow and is already at
// its maximum capacity, an error wrapping ErrCapacityExhausted is returned
// and the map is left unchanged.
func (m *Map) Put(key int32, value int64) (prev int64, replaced bool, err error) {
	// The threshold check precedes the lookup, so an update of an existing
	// key can also trigger growth.
	if m.used >= m.threshold {
		return m.resize(key, value)
	}

	for i := m.home(key); ; {
		s := &m.slots[i]
		if !s.occupied {
			s.key = key
			s.value = value
			s.occupied = true
			m.used++
			if m.logger != nil {
				m.logger.Debug("put(inserted)", "key", key, "value", value, "index", i, "used", m.used)
			}
			m.checkInvariants()
			return 0, false, nil
		}
		if s.key == key {
			prev = s.value
			s.value = value
			if m.logger != nil {
				m.logger.Debug("put(updated)", "key", key, "value", value, "prev", prev, "index", i)
			}
			m.checkInvariants()
			return prev, true, nil
		}
		if i++; i == m.capacity {
			i = 0
		}
	}
}

// Get retrieves the value from the map for the specified key, return ok=false
// if the key is not present.
func (m *Map) Get(key int32) (value int64, ok bool) {
	// The walk always ends: there are no tombstones and the threshold keeps
	// at least one slot empty.
	for i := m.home(key); ; {
		s := &m.slots[i]
		if !s.occupied {
			if m.logger != nil {
				m.logger.Debug("get(not-found)", "key", key, "index", i)
			}
			return 0, false
		}
		if s.key == key {
			return s.value, true
		}
		if i++; i == m.capacity {
			i = 0
		}
	}
}

// All calls yield sequentially for each key and value present in the map. If
// yield returns false, iteration stops. Entries are visited in slot order,
// which is unrelated to insertion order and changes when the map grows.
func (m *Map) All(yield func(key int32, value int64) bool) {
	slots := m.slots
	for i := range slots {
		if s := &slots[i]; s.occupied {
			if !yield(s.key, s.value) {
				return
			}
		}
	}
}

// Len returns the number of entries in the map.
func (m *Map) Len() int {
	return m.used
}

// Capacity returns the number of slots in the map.
func (m *Map) Capacity() int {
	return m.capacity
}

// Threshold returns the number of entries at which the next Put grows the
// map.
func (m *Map) Threshold() int {
	return m.threshold
}

// home returns the bucket a search for key starts at. Results of a custom
// BucketFunc that fall outside [0, capacity) are reduced modulo capacity.
func (m *Map) home(key int32) int {
	if m.capacity == 0 {
		panic("openaddr: use of closed Map")
	}
	i := m.bucket(key, m.capacity)
	if i < 0 || i >= m.capacity {
		i %= m.capacity
		if i < 0 {
			i += m.capacity
		}
	}
	return i
}

// resize grows the map and then puts the pending key and value. The target
// capacity is computed before anything is touched, so a failed resize leaves
// the map exactly as it was.
func (m *Map) resize(key int32, value int64) (int64, bool, error) {
	if m.capacity == 0 {
		panic("openaddr: use of closed Map")
	}
	newCapacity, ok := m.nextCapacity()
	if !ok {
		if m.logger != nil {
			m.logger.Warn("resize failed: maximum capacity reached",
				"capacity", m.capacity, "max_capacity", m.maxCapacity, "used", m.used)
		}
		return 0, false, fmt.Errorf("%w: capacity=%d max=%d used=%d",
			ErrCapacityExhausted, m.capacity, m.maxCapacity, m.used)
	}

	oldSlots, oldCapacity := m.slots, m.capacity
	m.init(newCapacity)

	// Re-insert in ascending order of the old slot index. Keys are known to
	// be unique and the new threshold is above the old size, so we can skip
	// both the key comparison and the threshold check.
	for i := range oldSlots {
		if s := &oldSlots[i]; s.occupied {
			m.uncheckedPut(s.key, s.value)
		}
	}
	m.allocator.FreeSlots(oldSlots)
	m.resizes++

	if m.logger != nil {
		m.logger.Debug("resize",
			"old_capacity", oldCapacity, "new_capacity", m.capacity,
			"threshold", m.threshold, "used", m.used)
	}
	m.checkInvariants()

	return m.Put(key, value)
}

// nextCapacity returns the capacity to grow to: capacity*growthMultiplier,
// at least one more slot than today and clamped to the maximum capacity.
// Multipliers close to 1 combined with small capacities can yield a new
// threshold that is no larger than the current size; we keep stepping until
// the new threshold leaves room for the pending entry so that re-inserting
// the old entries never recursively grows the map. ok=false means no
// admissible capacity exists.
func (m *Map) nextCapacity() (capacity int, ok bool) {
	if m.capacity >= m.maxCapacity {
		return 0, false
	}
	capacity = m.capacity
	for {
		next := int(float64(capacity) * m.growthMultiplier)
		if next <= capacity {
			next = capacity + 1
		}
		capacity = min(next, m.maxCapacity)
		if m.thresholdFor(capacity) > m.used {
			return capacity, true
		}
		if capacity == m.maxCapacity {
			return 0, false
		}
	}
}

// uncheckedPut inserts an entry known not to be in the table into the first
// empty slot at or after its home bucket. Used by resize.
func (m *Map) uncheckedPut(key int32, value int64) {
	for i := m.home(key); ; {
		s := &m.slots[i]
		if !s.occupied {
			s.key = key
			s.value = value
			s.occupied = true
			m.used++
			return
		}
		if i++; i == m.capacity {
			i = 0
		}
	}
}

// displacement returns how far slot i is from the home bucket of the key it
// holds.
func (m *Map) displacement(i int) int {
	d := i - m.home(m.slots[i].key)
	if d < 0 {
		d += m.capacity
	}
	return d
}

// String returns the size, capacity and threshold of the map followed by one
// line per entry in ascending bucket order.
func (m *Map) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "size=%d  capacity=%d  threshold=%d\n", m.used, m.capacity, m.threshold)
	for i := range m.slots {
		if s := &m.slots[i]; s.occupied {
			fmt.Fprintf(&buf, "  bucket=%d key=%d value=%d\n", i, s.key, s.value)
		}
	}
	return buf.String()
}

func (m *Map) checkInvariants() {
	if invariants {
		if len(m.slots) != m.capacity {
			panic(fmt.Sprintf("invariant failed: len(slots)=%d != capacity=%d\n%s",
				len(m.slots), m.capacity, m.debugString()))
		}
		if expected := m.thresholdFor(m.capacity); m.threshold != expected {
			panic(fmt.Sprintf("invariant failed: threshold=%d, expected %d\n%s",
				m.threshold, expected, m.debugString()))
		}

		// For every occupied slot, verify we can retrieve the key using Get
		// and that no other slot holds the same key. Count the number of used
		// slots.
		seen := make(map[int32]int, m.used)
		var used int
		for i := range m.slots {
			s := &m.slots[i]
			if !s.occupied {
				continue
			}
			if j, ok := seen[s.key]; ok {
				panic(fmt.Sprintf("invariant failed: key %d in slots %d and %d\n%s",
					s.key, j, i, m.debugString()))
			}
			seen[s.key] = i
			if v, ok := m.Get(s.key); !ok || v != s.value {
				panic(fmt.Sprintf("invariant failed: slot(%d): %d not found [home=%d]\n%s",
					i, s.key, m.home(s.key), m.debugString()))
			}
			used++
		}

		if used != m.used {
			panic(fmt.Sprintf("invariant failed: found %d used slots, but used count is %d\n%s",
				used, m.used, m.debugString()))
		}
		if m.capacity > 0 && used >= m.capacity {
			panic(fmt.Sprintf("invariant failed: no empty slot left\n%s", m.debugString()))
		}
	}
}

func (m *Map) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d  threshold=%d  resizes=%d\n",
		m.capacity, m.used, m.threshold, m.resizes)
	for i := range m.slots {
		s := &m.slots[i]
		if !s.occupied {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
			continue
		}
		fmt.Fprintf(&buf, "  %4d: %d=%d [home=%d]\n", i, s.key, s.value, m.home(s.key))
	}
	return buf.String()
}
