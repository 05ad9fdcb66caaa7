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

package programmer

import (
	"sync/atomic"
	"time"
)

// Metrics is a snapshot of programmer activity
type Metrics struct {
	LastReading       time.Time
	State             State
	Readings          int64
	ReadErrors        int64
	SectorsProgrammed int64
	CardsProgrammed   int64
	Subscribers       int
}

type counters struct {
	readings          atomic.Int64
	readErrors        atomic.Int64
	sectorsProgrammed atomic.Int64
	cardsProgrammed   atomic.Int64
	lastReading       atomic.Int64 // unix nanoseconds
}

func (c *counters) recordReading(at time.Time) {
	c.readings.Add(1)
	c.lastReading.Store(at.UnixNano())
}

// Metrics returns current operational metrics
func (p *Programmer) Metrics() Metrics {
	m := Metrics{
		State:             p.State(),
		Readings:          p.counters.readings.Load(),
		ReadErrors:        p.counters.readErrors.Load(),
		SectorsProgrammed: p.counters.sectorsProgrammed.Load(),
		CardsProgrammed:   p.counters.cardsProgrammed.Load(),
		Subscribers:       p.Subscribers(),
	}
	if ns := p.counters.lastReading.Load(); ns != 0 {
		m.LastReading = time.Unix(0, ns)
	}
	return m
}
