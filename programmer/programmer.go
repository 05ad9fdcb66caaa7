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

// Package programmer wraps an NFC platform with a scan lifecycle, reading
// subscriptions and a sector programming sequence.
package programmer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/sirupsen/logrus"
)

// Programmer errors
var (
	ErrAlreadyScanning      = errors.New("already scanning")
	ErrNotScanning          = errors.New("not scanning")
	ErrProgramAlreadyQueued = errors.New("a card program is already waiting for a card")
)

// Programmer drives one NFC platform. Events delivered by the platform are
// fanned out to subscribers while the programmer is scanning and dropped
// otherwise.
type Programmer struct {
	platform   mifareprog.Platform
	writer     SectorWriter
	reader     mifareprog.Reader
	config     *Config
	log        *logrus.Entry
	subs       *registry
	cancelScan context.CancelFunc
	pending    atomic.Pointer[programRequest]
	counters   counters
	mu         sync.Mutex
	activeScan atomic.Uint64
	scanSeq    uint64
	state      atomic.Int32
}

// New creates a programmer for platform
func New(platform mifareprog.Platform, opts ...Option) (*Programmer, error) {
	if platform == nil {
		return nil, errors.New("platform cannot be nil")
	}

	p := &Programmer{
		platform: platform,
		config:   DefaultConfig(),
		log:      mifareprog.Component("programmer"),
		subs:     newRegistry(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if p.writer == nil {
		p.writer = SimulatedWriter{Delay: p.config.WriteDelay}
	}
	return p, nil
}

// Config returns a copy of the programmer configuration
func (p *Programmer) Config() Config {
	return *p.config
}

// State returns the current lifecycle stage
func (p *Programmer) State() State {
	return State(p.state.Load())
}

// IsScanning reports whether reader events are being delivered
func (p *Programmer) IsScanning() bool {
	return p.State() == StateScanning
}

// Initialize creates a fresh reader handle. Calling it again replaces the
// handle and ends any running scan.
func (p *Programmer) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initializeLocked()
}

func (p *Programmer) initializeLocked() error {
	if !p.platform.Supported() {
		return mifareprog.ErrUnsupportedPlatform
	}

	if p.State() == StateScanning {
		if err := p.stopLocked(); err != nil {
			p.log.WithError(err).Warn("previous reader did not stop")
		}
	}

	reader, err := p.platform.NewReader()
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	p.reader = reader
	p.state.Store(int32(StateInitialized))
	p.log.Debug("reader initialized")
	return nil
}

// StartScanning begins delivering reader events to subscribers. An
// uninitialized programmer is initialized first. When the platform refuses
// to scan the error matches mifareprog.ErrNFCStart and the state is not
// changed to scanning.
func (p *Programmer) StartScanning(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.State() {
	case StateScanning:
		return ErrAlreadyScanning
	case StateUninitialized:
		if err := p.initializeLocked(); err != nil {
			return err
		}
	case StateInitialized:
	}

	p.scanSeq++
	seq := p.scanSeq
	scanCtx, cancel := context.WithCancel(ctx)

	// Events may arrive before Scan returns.
	p.activeScan.Store(seq)
	if err := p.reader.Scan(scanCtx, &dispatcher{p: p, seq: seq}); err != nil {
		p.activeScan.Store(0)
		cancel()
		return fmt.Errorf("%w: %w", mifareprog.ErrNFCStart, err)
	}

	p.cancelScan = cancel
	p.state.Store(int32(StateScanning))
	p.log.WithField("scan", seq).Info("NFC scan started")
	return nil
}

// StopScanning ends delivery of reader events. Readers that implement
// mifareprog.Stopper are stopped too; events from readers that cannot stop
// are dropped. A program waiting in ProgramNextCard is released with
// ErrNotScanning.
func (p *Programmer) StopScanning() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() != StateScanning {
		return nil
	}
	return p.stopLocked()
}

func (p *Programmer) stopLocked() error {
	p.activeScan.Store(0)
	p.releasePending()
	if p.cancelScan != nil {
		p.cancelScan()
		p.cancelScan = nil
	}
	p.state.Store(int32(StateInitialized))
	p.log.Info("NFC scan stopped")

	if stopper, ok := p.reader.(mifareprog.Stopper); ok {
		if err := stopper.Stop(); err != nil {
			return fmt.Errorf("failed to stop reader: %w", err)
		}
	}
	return nil
}

// Subscribe registers handlers for card readings and read errors
func (p *Programmer) Subscribe(h Handlers) *Subscription {
	return p.subs.add(h)
}

// Subscribers returns the number of active subscriptions
func (p *Programmer) Subscribers() int {
	return p.subs.len()
}

// dispatcher is the listener handed to the reader for one scan. The scan is
// re-checked before every callback, so once StopScanning returns no new
// callback starts. A callback already running when StopScanning is called is
// not interrupted.
type dispatcher struct {
	p   *Programmer
	seq uint64
}

func (d *dispatcher) OnReading(r mifareprog.Reading) {
	if !d.p.accepts(d.seq) {
		d.p.log.WithField("serial", r.SerialNumber).Debug("dropping reading outside of scan")
		return
	}
	if r.ReceivedAt.IsZero() {
		r.ReceivedAt = time.Now()
	}
	d.p.counters.recordReading(r.ReceivedAt)
	d.p.log.WithField("serial", r.SerialNumber).Debug("card detected")

	d.p.handOff(d.seq, r)
	for _, h := range d.p.subs.snapshot() {
		if h.OnCardDetected == nil {
			continue
		}
		if !d.p.accepts(d.seq) {
			return
		}
		h.OnCardDetected(r)
	}
}

func (d *dispatcher) OnReadingError(err error) {
	if !d.p.accepts(d.seq) {
		return
	}
	d.p.counters.readErrors.Add(1)
	d.p.log.WithError(err).Warn("card read failed")

	for _, h := range d.p.subs.snapshot() {
		if h.OnError == nil {
			continue
		}
		if !d.p.accepts(d.seq) {
			return
		}
		h.OnError(err)
	}
}

func (p *Programmer) accepts(seq uint64) bool {
	return seq != 0 && p.activeScan.Load() == seq
}
