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

package testing

import (
	"time"

	"github.com/ZaparooProject/go-mifareprog"
)

const listenerBuffer = 32

// RecordingListener collects reader events on buffered channels
type RecordingListener struct {
	Readings chan mifareprog.Reading
	Errors   chan error
}

// NewRecordingListener creates an empty listener
func NewRecordingListener() *RecordingListener {
	return &RecordingListener{
		Readings: make(chan mifareprog.Reading, listenerBuffer),
		Errors:   make(chan error, listenerBuffer),
	}
}

// OnReading implements mifareprog.Listener
func (l *RecordingListener) OnReading(r mifareprog.Reading) {
	l.Readings <- r
}

// OnReadingError implements mifareprog.Listener
func (l *RecordingListener) OnReadingError(err error) {
	l.Errors <- err
}

// NextReading waits up to timeout for a reading
func (l *RecordingListener) NextReading(timeout time.Duration) (mifareprog.Reading, bool) {
	select {
	case r := <-l.Readings:
		return r, true
	case <-time.After(timeout):
		return mifareprog.Reading{}, false
	}
}

// NextError waits up to timeout for an error
func (l *RecordingListener) NextError(timeout time.Duration) (error, bool) { //nolint:revive // test helper
	select {
	case err := <-l.Errors:
		return err, true
	case <-time.After(timeout):
		return nil, false
	}
}
