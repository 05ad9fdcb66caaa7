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
	"fmt"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
)

// ProgressFunc receives the completed percentage and a status line after
// each sector
type ProgressFunc func(percent float64, status string)

// ProgramCard writes every sector of card in order and reports progress
// after each one. It returns true once all sectors are written.
func (p *Programmer) ProgramCard(ctx context.Context, card *mifareprog.CardData, progress ProgressFunc) (bool, error) {
	if card == nil || card.SectorData == nil {
		return false, mifareprog.ErrInvalidCardData
	}

	ids := card.SectorData.IDs()
	total := len(ids)
	log := p.log.WithField("program", card.ProgramName)
	log.WithField("sectors", total).Info("programming card")

	for i, id := range ids {
		sector, _ := card.SectorData.Get(id)
		if err := p.writer.WriteSector(ctx, id, sector); err != nil {
			return false, fmt.Errorf("failed to program sector %s: %w", id, err)
		}
		p.counters.sectorsProgrammed.Add(1)
		log.WithField("sector", id).Debug("sector programmed")

		if progress != nil {
			percent := float64(i+1) / float64(total) * 100
			progress(percent, fmt.Sprintf("Programming sector %s...", id))
		}
	}

	p.counters.cardsProgrammed.Add(1)
	return true, nil
}

// programRequest is a program waiting for the next card reading
type programRequest struct {
	ctx     context.Context
	reading chan mifareprog.Reading
	stopped chan struct{}
	seq     uint64
}

// ProgramNextCard waits for the next card reading and then programs card.
// The wait is bounded by timeout, or Config.ProgramTimeout when timeout is
// zero. Only one program may wait at a time. Stopping the scan releases the
// wait with ErrNotScanning.
func (p *Programmer) ProgramNextCard(
	ctx context.Context,
	timeout time.Duration,
	card *mifareprog.CardData,
	progress ProgressFunc,
) (mifareprog.Reading, error) {
	if card == nil || card.SectorData == nil {
		return mifareprog.Reading{}, mifareprog.ErrInvalidCardData
	}
	seq := p.activeScan.Load()
	if seq == 0 {
		return mifareprog.Reading{}, ErrNotScanning
	}
	if timeout <= 0 {
		timeout = p.config.ProgramTimeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := &programRequest{
		ctx:     waitCtx,
		reading: make(chan mifareprog.Reading, 1),
		stopped: make(chan struct{}),
		seq:     seq,
	}
	if !p.pending.CompareAndSwap(nil, req) {
		return mifareprog.Reading{}, ErrProgramAlreadyQueued
	}
	defer p.pending.CompareAndSwap(req, nil)

	// The scan may have stopped before the request was queued.
	if p.activeScan.Load() != seq {
		return mifareprog.Reading{}, ErrNotScanning
	}

	var reading mifareprog.Reading
	select {
	case reading = <-req.reading:
	case <-req.stopped:
		return mifareprog.Reading{}, ErrNotScanning
	case <-waitCtx.Done():
		return mifareprog.Reading{}, fmt.Errorf("waiting for card: %w", waitCtx.Err())
	}

	if _, err := p.ProgramCard(ctx, card, progress); err != nil {
		return reading, err
	}
	return reading, nil
}

// handOff passes a reading from scan seq to a waiting program request, if any
func (p *Programmer) handOff(seq uint64, r mifareprog.Reading) {
	req := p.pending.Load()
	if req == nil || req.seq != seq || !p.pending.CompareAndSwap(req, nil) {
		return
	}
	select {
	case <-req.ctx.Done():
		return
	default:
	}
	select {
	case req.reading <- r:
	default:
	}
}

// releasePending wakes a program request left waiting by a stopped scan
func (p *Programmer) releasePending() {
	if req := p.pending.Swap(nil); req != nil {
		close(req.stopped)
	}
}
