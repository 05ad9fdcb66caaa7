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
	"context"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
)

// SectorWriter transfers one sector to a card
type SectorWriter interface {
	WriteSector(ctx context.Context, id string, sector mifareprog.Sector) error
}

// SimulatedWriter stands in for a hardware write. Each call only waits for
// Delay; no data leaves the process.
type SimulatedWriter struct {
	Delay time.Duration
}

// WriteSector implements SectorWriter
func (w SimulatedWriter) WriteSector(ctx context.Context, _ string, _ mifareprog.Sector) error {
	if w.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(w.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SectorWriterFunc adapts a function to SectorWriter
type SectorWriterFunc func(ctx context.Context, id string, sector mifareprog.Sector) error

// WriteSector implements SectorWriter
func (f SectorWriterFunc) WriteSector(ctx context.Context, id string, sector mifareprog.Sector) error {
	return f(ctx, id, sector)
}
