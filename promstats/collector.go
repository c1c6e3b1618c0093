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

// Package promstats exports the occupancy of an openaddr.Map as Prometheus
// metrics.
//
//	m, _ := openaddr.New()
//	prometheus.MustRegister(promstats.NewCollector("myapp", "sessions", m))
//
// An openaddr.Map is not goroutine-safe and Collect is called from the
// registry's goroutine, so callers that mutate the map concurrently with a
// scrape must wrap it in a StatsSource that takes their own lock.
package promstats

import (
	"github.com/cockroachdb/openaddr"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "openaddr"

// StatsSource is anything that can produce a Stats snapshot. *openaddr.Map
// implements it.
type StatsSource interface {
	Stats() openaddr.Stats
}

// Collector implements prometheus.Collector for a single map. Every metric
// carries a constant "map" label with the name given to NewCollector.
type Collector struct {
	src StatsSource

	size            *prometheus.Desc
	capacity        *prometheus.Desc
	threshold       *prometheus.Desc
	loadRatio       *prometheus.Desc
	maxDisplacement *prometheus.Desc
	resizes         *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a Collector reading from src.
func NewCollector(namespace, name string, src StatsSource) *Collector {
	labels := prometheus.Labels{"map": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, metric), help, nil, labels)
	}
	return &Collector{
		src:             src,
		size:            desc("size", "Number of entries in the map."),
		capacity:        desc("capacity", "Number of slots in the map."),
		threshold:       desc("threshold", "Number of entries at which the map grows."),
		loadRatio:       desc("load_ratio", "Ratio of entries to slots."),
		maxDisplacement: desc("max_displacement", "Largest distance of an entry from its home bucket."),
		resizes:         desc("resizes_total", "Number of times the map has grown."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.capacity
	ch <- c.threshold
	ch <- c.loadRatio
	ch <- c.maxDisplacement
	ch <- c.resizes
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity))
	ch <- prometheus.MustNewConstMetric(c.threshold, prometheus.GaugeValue, float64(s.Threshold))
	ch <- prometheus.MustNewConstMetric(c.loadRatio, prometheus.GaugeValue, s.LoadRatio)
	ch <- prometheus.MustNewConstMetric(c.maxDisplacement, prometheus.GaugeValue, float64(s.MaxDisplacement))
	ch <- prometheus.MustNewConstMetric(c.resizes, prometheus.CounterValue, float64(s.Resizes))
}
