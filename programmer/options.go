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
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultWriteDelay is the latency of one simulated sector write
const DefaultWriteDelay = 200 * time.Millisecond

// Config holds configuration options for the Programmer
type Config struct {
	// WriteDelay is the latency of each simulated sector write
	WriteDelay time.Duration

	// ProgramTimeout bounds how long ProgramNextCard waits for a card
	ProgramTimeout time.Duration
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	return &Config{
		WriteDelay:     DefaultWriteDelay,
		ProgramTimeout: 30 * time.Second,
	}
}

// Option is a functional option for configuring a Programmer
type Option func(*Programmer) error

// WithConfig replaces the programmer configuration
func WithConfig(config *Config) Option {
	return func(p *Programmer) error {
		if config == nil {
			return errors.New("config cannot be nil")
		}
		p.config = config
		return nil
	}
}

// WithWriteDelay sets the latency of the default simulated writer
func WithWriteDelay(delay time.Duration) Option {
	return func(p *Programmer) error {
		if delay < 0 {
			return errors.New("write delay cannot be negative")
		}
		p.config.WriteDelay = delay
		return nil
	}
}

// WithSectorWriter replaces the simulated writer
func WithSectorWriter(w SectorWriter) Option {
	return func(p *Programmer) error {
		if w == nil {
			return errors.New("sector writer cannot be nil")
		}
		p.writer = w
		return nil
	}
}

// WithLogger sets the log entry used by the programmer
func WithLogger(entry *logrus.Entry) Option {
	return func(p *Programmer) error {
		if entry != nil {
			p.log = entry
		}
		return nil
	}
}
