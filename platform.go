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

package mifareprog

import (
	"context"
	"fmt"
	"time"

	"github.com/hsanjuan/go-ndef"
)

// Platform is an NFC capability offered by the host. It can be a serial
// reader, a phone connected over a websocket, or a test double.
type Platform interface {
	// Supported reports whether NFC reading is available right now
	Supported() bool

	// NewReader creates a fresh reader handle
	NewReader() (Reader, error)
}

// Reader delivers card readings to a Listener.
type Reader interface {
	// Scan starts delivering events to l until ctx is cancelled. It returns
	// once the scan has started; an error means no scan is running.
	Scan(ctx context.Context, l Listener) error
}

// Stopper is implemented by readers that can halt the underlying device.
type Stopper interface {
	Stop() error
}

// Listener receives reader events. Calls may come from any goroutine.
type Listener interface {
	OnReading(Reading)
	OnReadingError(error)
}

// PlatformType names a platform implementation
type PlatformType string

const (
	// PlatformUART is a serial line reader
	PlatformUART PlatformType = "uart"
	// PlatformWebNFC is a Web NFC capable browser connected over a websocket
	PlatformWebNFC PlatformType = "webnfc"
	// PlatformVirtual is an in-process reader used in tests and demos
	PlatformVirtual PlatformType = "virtual"
)

// Reading is one card read event.
type Reading struct {
	ReceivedAt   time.Time
	Message      *ndef.Message
	SerialNumber string
}

// Texts returns the string form of every record payload in the message.
// Records whose payload cannot be decoded are skipped.
func (r Reading) Texts() []string {
	if r.Message == nil {
		return nil
	}
	var texts []string
	for _, rec := range r.Message.Records {
		payload, err := rec.Payload()
		if err != nil {
			debugf("skipping NDEF record %s: %v", rec.Type(), err)
			continue
		}
		texts = append(texts, payload.String())
	}
	return texts
}

// DecodeNDEF parses raw NDEF bytes. Empty input yields a nil message.
func DecodeNDEF(raw []byte) (*ndef.Message, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	msg := &ndef.Message{}
	if _, err := msg.Unmarshal(raw); err != nil {
		return nil, fmt.Errorf("%w: ndef: %w", ErrInvalidFormat, err)
	}
	return msg, nil
}
