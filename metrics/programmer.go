// go-mifareprog
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mifareprog.
//
// go-mifareprog is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mifareprog is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mifareprog; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package metrics

import (
	"github.com/ZaparooProject/go-mifareprog/programmer"
	"github.com/prometheus/client_golang/prometheus"
)

// Source provides programmer snapshots
type Source interface {
	Metrics() programmer.Metrics
}

// ProgrammerCollector turns programmer snapshots into Prometheus metrics at
// scrape time
type ProgrammerCollector struct {
	source            Source
	readings          *prometheus.Desc
	readErrors        *prometheus.Desc
	sectorsProgrammed *prometheus.Desc
	cardsProgrammed   *prometheus.Desc
	subscribers       *prometheus.Desc
	scanning          *prometheus.Desc
	lastReading       *prometheus.Desc
}

// NewProgrammerCollector creates a collector for source
func NewProgrammerCollector(namespace string, source Source) *ProgrammerCollector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "programmer", name), help, nil, nil)
	}
	return &ProgrammerCollector{
		source:            source,
		readings:          desc("readings_total", "Card readings delivered by the reader."),
		readErrors:        desc("read_errors_total", "Read errors reported by the reader."),
		sectorsProgrammed: desc("sectors_programmed_total", "Sectors written to cards."),
		cardsProgrammed:   desc("cards_programmed_total", "Cards programmed to completion."),
		subscribers:       desc("subscribers", "Registered card event handlers."),
		scanning:          desc("scanning", "1 while the reader is scanning."),
		lastReading:       desc("last_reading_timestamp_seconds", "Unix time of the last card reading."),
	}
}

// Describe implements prometheus.Collector
func (c *ProgrammerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.readings
	ch <- c.readErrors
	ch <- c.sectorsProgrammed
	ch <- c.cardsProgrammed
	ch <- c.subscribers
	ch <- c.scanning
	ch <- c.lastReading
}

// Collect implements prometheus.Collector
func (c *ProgrammerCollector) Collect(ch chan<- prometheus.Metric) {
	m := c.source.Metrics()

	scanning := 0.0
	if m.State == programmer.StateScanning {
		scanning = 1
	}
	lastReading := 0.0
	if !m.LastReading.IsZero() {
		lastReading = float64(m.LastReading.UnixNano()) / 1e9
	}

	ch <- prometheus.MustNewConstMetric(c.readings, prometheus.CounterValue, float64(m.Readings))
	ch <- prometheus.MustNewConstMetric(c.readErrors, prometheus.CounterValue, float64(m.ReadErrors))
	ch <- prometheus.MustNewConstMetric(c.sectorsProgrammed, prometheus.CounterValue, float64(m.SectorsProgrammed))
	ch <- prometheus.MustNewConstMetric(c.cardsProgrammed, prometheus.CounterValue, float64(m.CardsProgrammed))
	ch <- prometheus.MustNewConstMetric(c.subscribers, prometheus.GaugeValue, float64(m.Subscribers))
	ch <- prometheus.MustNewConstMetric(c.scanning, prometheus.GaugeValue, scanning)
	ch <- prometheus.MustNewConstMetric(c.lastReading, prometheus.GaugeValue, lastReading)
}
