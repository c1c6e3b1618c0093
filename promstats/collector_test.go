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

package promstats

import (
	"strings"
	"testing"

	"github.com/cockroachdb/openaddr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fixedStats openaddr.Stats

func (s fixedStats) Stats() openaddr.Stats {
	return openaddr.Stats(s)
}

func TestCollectorRegisters(t *testing.T) {
	m, err := openaddr.New()
	require.NoError(t, err)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector("test", "m", m)))
	require.EqualValues(t, 6, testutil.CollectAndCount(NewCollector("test", "m", m)))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 6)
}

func TestCollectorValues(t *testing.T) {
	m, err := openaddr.New(openaddr.WithInitialCapacity(1))
	require.NoError(t, err)
	for k := int32(1); k <= 5; k++ {
		_, _, err := m.Put(k*111, int64(k))
		require.NoError(t, err)
	}
	c := NewCollector("test", "m", m)

	// 1 -> 2 -> 4 -> 8 with default options.
	const expected = `
# HELP test_openaddr_size Number of entries in the map.
# TYPE test_openaddr_size gauge
test_openaddr_size{map="m"} 5
# HELP test_openaddr_capacity Number of slots in the map.
# TYPE test_openaddr_capacity gauge
test_openaddr_capacity{map="m"} 8
# HELP test_openaddr_threshold Number of entries at which the map grows.
# TYPE test_openaddr_threshold gauge
test_openaddr_threshold{map="m"} 5
# HELP test_openaddr_resizes_total Number of times the map has grown.
# TYPE test_openaddr_resizes_total counter
test_openaddr_resizes_total{map="m"} 3
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"test_openaddr_size", "test_openaddr_capacity",
		"test_openaddr_threshold", "test_openaddr_resizes_total"))
}

func TestCollectorStatsSource(t *testing.T) {
	src := fixedStats{Size: 3, Capacity: 10, Threshold: 7, LoadRatio: 0.3, MaxDisplacement: 2}
	c := NewCollector("", "fixed", src)

	const expected = `
# HELP openaddr_load_ratio Ratio of entries to slots.
# TYPE openaddr_load_ratio gauge
openaddr_load_ratio{map="fixed"} 0.3
# HELP openaddr_max_displacement Largest distance of an entry from its home bucket.
# TYPE openaddr_max_displacement gauge
openaddr_max_displacement{map="fixed"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"openaddr_load_ratio", "openaddr_max_displacement"))
}
