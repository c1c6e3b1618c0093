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

// Stats is a point-in-time summary of a Map's occupancy.
type Stats struct {
	Size      int
	Capacity  int
	Threshold int
	// LoadRatio is Size/Capacity.
	LoadRatio float64
	// Resizes is the number of times the map has grown.
	Resizes int
	// MaxDisplacement and MeanDisplacement measure how far entries sit from
	// their home bucket. An entry in its home bucket has displacement 0.
	MaxDisplacement  int
	MeanDisplacement float64
}

// Stats walks every slot and returns a summary of the map. It is O(capacity).
func (m *Map) Stats() Stats {
	s := Stats{
		Size:      m.used,
		Capacity:  m.capacity,
		Threshold: m.threshold,
		Resizes:   m.resizes,
	}
	if m.capacity == 0 {
		return s
	}
	s.LoadRatio = float64(m.used) / float64(m.capacity)

	var total int
	for i := range m.slots {
		if !m.slots[i].occupied {
			continue
		}
		d := m.displacement(i)
		total += d
		s.MaxDisplacement = max(s.MaxDisplacement, d)
	}
	if m.used > 0 {
		s.MeanDisplacement = float64(total) / float64(m.used)
	}
	return s
}
