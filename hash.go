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

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// BucketFunc returns the home bucket of key in a table with the given number
// of slots. The result should be in [0, capacity); anything else is reduced
// modulo capacity by the Map.
type BucketFunc func(key int32, capacity int) int

// multiplicativeHashConstant is the reciprocal of the golden ratio.
var multiplicativeHashConstant = (math.Sqrt(5) - 1) / 2

// MultiplicativeBucket implements Knuth's multiplicative method:
//
//	|floor(capacity * frac(key * A))|,  A = (sqrt(5)-1)/2
//
// frac keeps the sign of key*A, so negative keys land on a mirrored bucket.
// For a negative fraction the floor can reach -capacity, in which case the
// result wraps to 0 exactly as stepping past the last slot would.
func MultiplicativeBucket(key int32, capacity int) int {
	frac := math.Mod(float64(key)*multiplicativeHashConstant, 1)
	b := int(math.Abs(math.Floor(float64(capacity) * frac)))
	if b >= capacity {
		b -= capacity
	}
	return b
}

// ModuloBucket returns |key mod capacity|. It clusters sequential keys and is
// mostly useful as a baseline.
func ModuloBucket(key int32, capacity int) int {
	b := int(key) % capacity
	if b < 0 {
		b = -b
	}
	return b
}

// XXHashBucket hashes the little-endian bytes of key with xxhash. It is
// slower than MultiplicativeBucket but does not degrade on keys that are
// multiples of each other or otherwise adversarially chosen.
func XXHashBucket(key int32, capacity int) int {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(key))
	return int(xxhash.Sum64(buf[:]) % uint64(capacity))
}
