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

// Package testing provides virtual NFC platforms and canned backend responses
// for exercising the programmer without hardware.
package testing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/hsanjuan/go-ndef"
)

// Well known serial numbers used across tests
const (
	TestClassic1KSerial = "04:A2:2B:C1"
	TestClassic4KSerial = "04:7F:19:D2:33:80:01"
)

// ErrReaderNotScanning is returned when an event is injected into a reader
// that has no active scan.
var ErrReaderNotScanning = errors.New("virtual reader is not scanning")

// VirtualCard is a simulated card that can be presented to a VirtualReader
type VirtualCard struct {
	Message      *ndef.Message
	SerialNumber string
}

// NewVirtualCard creates a card carrying a single NDEF text record.
// An empty text produces a card without NDEF content.
func NewVirtualCard(serial, text string) *VirtualCard {
	card := &VirtualCard{SerialNumber: serial}
	if text != "" {
		card.Message = ndef.NewTextMessage(text, "en")
	}
	return card
}

// Reading converts the card into the event a reader would deliver
func (c *VirtualCard) Reading() mifareprog.Reading {
	return mifareprog.Reading{
		SerialNumber: c.SerialNumber,
		Message:      c.Message,
		ReceivedAt:   time.Now(),
	}
}

// VirtualPlatform is an in-process NFC platform. Readers it creates deliver
// events synchronously on the goroutine that injects them.
type VirtualPlatform struct {
	NewReaderErr error
	ScanErr      error
	readers      []*VirtualReader
	mu           sync.Mutex
	supported    bool
}

// NewVirtualPlatform creates a platform that reports NFC support as given
func NewVirtualPlatform(supported bool) *VirtualPlatform {
	return &VirtualPlatform{supported: supported}
}

// SetSupported changes the reported capability
func (p *VirtualPlatform) SetSupported(supported bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.supported = supported
}

// Supported implements mifareprog.Platform
func (p *VirtualPlatform) Supported() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.supported
}

// NewReader implements mifareprog.Platform
func (p *VirtualPlatform) NewReader() (mifareprog.Reader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.NewReaderErr != nil {
		return nil, p.NewReaderErr
	}
	r := &VirtualReader{scanErr: p.ScanErr}
	p.readers = append(p.readers, r)
	return r, nil
}

// Readers returns every reader created so far
func (p *VirtualPlatform) Readers() []*VirtualReader {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*VirtualReader, len(p.readers))
	copy(out, p.readers)
	return out
}

// Current returns the most recently created reader, or nil
func (p *VirtualPlatform) Current() *VirtualReader {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.readers) == 0 {
		return nil
	}
	return p.readers[len(p.readers)-1]
}

// VirtualReader records the listener of its scan and lets tests inject events.
// It keeps delivering after its scan context ends unless Stop was called,
// which mirrors platforms that cannot abort a scan.
type VirtualReader struct {
	scanErr  error
	listener mifareprog.Listener
	mu       sync.Mutex
	scans    int
	stopped  bool
}

// Scan implements mifareprog.Reader
func (r *VirtualReader) Scan(_ context.Context, l mifareprog.Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scanErr != nil {
		return r.scanErr
	}
	r.listener = l
	r.scans++
	r.stopped = false
	return nil
}

// Stop implements mifareprog.Stopper
func (r *VirtualReader) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

// Stopped reports whether Stop was called since the last scan started
func (r *VirtualReader) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Scans returns how many scans were started on the reader
func (r *VirtualReader) Scans() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans
}

func (r *VirtualReader) active() (mifareprog.Listener, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil || r.stopped {
		return nil, ErrReaderNotScanning
	}
	return r.listener, nil
}

// Present delivers a reading for card
func (r *VirtualReader) Present(card *VirtualCard) error {
	l, err := r.active()
	if err != nil {
		return err
	}
	l.OnReading(card.Reading())
	return nil
}

// Fail delivers a read error
func (r *VirtualReader) Fail(readErr error) error {
	l, err := r.active()
	if err != nil {
		return err
	}
	l.OnReadingError(readErr)
	return nil
}

// Deliver sends a reading to the last listener even after Stop, for
// exercising late events
func (r *VirtualReader) Deliver(reading mifareprog.Reading) {
	r.mu.Lock()
	l := r.listener
	r.mu.Unlock()
	if l != nil {
		l.OnReading(reading)
	}
}
