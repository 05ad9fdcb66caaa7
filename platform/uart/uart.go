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

// Package uart reads cards from a microcontroller reader attached to a
// serial port. The reader speaks the line protocol of internal/frame.
package uart

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/ZaparooProject/go-mifareprog/internal/frame"
	"github.com/ZaparooProject/go-mifareprog/internal/transport"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// Serial defaults
const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 100 * time.Millisecond
	DefaultOpenRetries = 3
	defaultRetryDelay  = 250 * time.Millisecond
	readChunkSize      = 256

	// a stopped read loop exits after at most one read timeout
	defaultReleaseTimeout = 10 * DefaultReadTimeout
)

// Errors
var (
	ErrNoPort      = errors.New("no serial port configured")
	ErrScanRunning = errors.New("scan already running")
	ErrReaderFault = errors.New("reader reported an error")
)

// Port is the part of a serial port the reader uses
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Opener opens path at the given baud rate
type Opener func(path string, baudRate int) (Port, error)

// PortLister lists the serial ports present on the host
type PortLister func() ([]string, error)

func openSerial(path string, baudRate int) (Port, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	return port, nil
}

// Option configures a Platform
type Option func(*Platform) error

// WithBaudRate sets the serial speed
func WithBaudRate(baud int) Option {
	return func(p *Platform) error {
		if baud <= 0 {
			return fmt.Errorf("invalid baud rate %d", baud)
		}
		p.baudRate = baud
		return nil
	}
}

// WithOpener replaces the function used to open the port
func WithOpener(open Opener) Option {
	return func(p *Platform) error {
		p.open = open
		return nil
	}
}

// WithPortLister replaces the function used to enumerate ports
func WithPortLister(list PortLister) Option {
	return func(p *Platform) error {
		p.list = list
		return nil
	}
}

// WithOpenRetries sets how often opening the port is retried and the pause
// between attempts
func WithOpenRetries(retries int, delay time.Duration) Option {
	return func(p *Platform) error {
		if retries < 0 {
			return fmt.Errorf("invalid retry count %d", retries)
		}
		p.retries = retries
		p.retryDelay = delay
		return nil
	}
}

// WithLogger sets the log entry
func WithLogger(log *logrus.Entry) Option {
	return func(p *Platform) error {
		if log != nil {
			p.log = log
		}
		return nil
	}
}

// Platform is a serial reader at a fixed path
type Platform struct {
	open       Opener
	list       PortLister
	log        *logrus.Entry
	path       string
	baudRate   int
	retries    int
	retryDelay time.Duration
	release    time.Duration
}

// New creates a platform for the serial port at path
func New(path string, opts ...Option) (*Platform, error) {
	p := &Platform{
		path:       path,
		baudRate:   DefaultBaudRate,
		open:       openSerial,
		list:       serial.GetPortsList,
		retries:    DefaultOpenRetries,
		retryDelay: defaultRetryDelay,
		release:    defaultReleaseTimeout,
		log:        mifareprog.Component("uart"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.log = p.log.WithField("port", path)
	return p, nil
}

// Path returns the configured port
func (p *Platform) Path() string {
	return p.path
}

// Supported reports whether the configured port is present
func (p *Platform) Supported() bool {
	if p.path == "" {
		return false
	}
	ports, err := p.list()
	if err != nil {
		p.log.WithError(err).Debug("listing serial ports failed")
		return false
	}
	return slices.Contains(ports, p.path)
}

// NewReader returns a reader for the port. The port is opened by Scan.
func (p *Platform) NewReader() (mifareprog.Reader, error) {
	if p.path == "" {
		return nil, ErrNoPort
	}
	return &Reader{platform: p}, nil
}

// Reader streams card reads from the serial port
type Reader struct {
	platform *Platform
	port     Port
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// Scan opens the port, asks the reader to start and returns once the
// reader accepted the command. Events are delivered until ctx ends or Stop
// is called.
func (r *Reader) Scan(ctx context.Context, l mifareprog.Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running() {
		if r.cancel != nil {
			return ErrScanRunning
		}
		if err := r.awaitRelease(ctx); err != nil {
			return err
		}
	}

	port, err := r.openPort(ctx)
	if err != nil {
		return err
	}
	if err := port.SetReadTimeout(DefaultReadTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("set read timeout: %w", err)
	}
	if _, err := io.WriteString(port, frame.CommandStartScan+frame.LineEnding); err != nil {
		_ = port.Close()
		return fmt.Errorf("send %s: %w", frame.CommandStartScan, err)
	}

	scanCtx, cancel := context.WithCancel(ctx)
	r.port = port
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.readLoop(scanCtx, port, l, r.done)

	r.platform.log.Debug("scan started")
	return nil
}

func (r *Reader) openPort(ctx context.Context) (Port, error) {
	p := r.platform
	var lastErr error
	port, err := transport.WithRetry(ctx, transport.RetryConfig{
		Description: "open " + p.path,
		MaxRetries:  p.retries,
		RetryDelay:  p.retryDelay,
		OnRetry: func(attempt int) error {
			p.log.WithError(lastErr).WithField("attempt", attempt).Debug("retrying port open")
			return nil
		},
	}, func() (Port, bool, error) {
		port, err := p.open(p.path, p.baudRate)
		if err != nil {
			lastErr = err
			return nil, true, nil
		}
		return port, false, nil
	})
	if err != nil {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %w", err, lastErr)
		}
		return nil, err //nolint:wrapcheck // already descriptive
	}
	return port, nil
}

// awaitRelease waits for a stopped read loop to close the port
func (r *Reader) awaitRelease(ctx context.Context) error {
	_, err := transport.TimeoutRetry(ctx, r.platform.release, func() (struct{}, bool, error) {
		return struct{}{}, r.running(), nil
	})
	if err != nil {
		return fmt.Errorf("previous scan still holds %s: %w", r.platform.path, err)
	}
	return nil
}

func (r *Reader) running() bool {
	if r.done == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Stop tells the reader to stop and ends the read loop. The loop closes
// the port when it exits; Done reports when that happened. Stop does not
// wait, so it is safe to call from a Listener.
func (r *Reader) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running() || r.cancel == nil {
		return nil
	}

	_, writeErr := io.WriteString(r.port, frame.CommandStopScan+frame.LineEnding)
	r.cancel()
	r.cancel = nil

	r.platform.log.Debug("scan stopped")
	if writeErr != nil {
		return fmt.Errorf("send %s: %w", frame.CommandStopScan, writeErr)
	}
	return nil
}

// Done returns a channel closed when the current read loop has exited, or
// nil when no scan was ever started
func (r *Reader) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// readLoop owns port and closes it on exit
func (r *Reader) readLoop(ctx context.Context, port Port, l mifareprog.Listener, done chan struct{}) {
	defer close(done)
	defer func() { _ = port.Close() }()

	var line bytes.Buffer
	buf := make([]byte, readChunkSize)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := port.Read(buf)
		if err != nil {
			if ctx.Err() == nil {
				l.OnReadingError(fmt.Errorf("read %s: %w", r.platform.path, err))
			}
			return
		}
		// n == 0 is a read timeout
		for _, b := range buf[:n] {
			if b != '\n' {
				_ = line.WriteByte(b)
				if line.Len() > frame.MaxLineLength {
					l.OnReadingError(fmt.Errorf("%w: discarding partial line", frame.ErrLineTooLong))
					line.Reset()
				}
				continue
			}
			r.handleLine(line.String(), l)
			line.Reset()
		}
	}
}

func (r *Reader) handleLine(raw string, l mifareprog.Listener) {
	f, err := frame.Decode(raw)
	if err != nil {
		l.OnReadingError(err)
		return
	}

	switch f.Kind {
	case frame.KindComment:
		if f.Message != "" {
			r.platform.log.Debugf("reader: %s", f.Message)
		}
	case frame.KindError:
		l.OnReadingError(fmt.Errorf("%w: %s", ErrReaderFault, f.Message))
	case frame.KindReading:
		msg, err := mifareprog.DecodeNDEF(f.NDEF)
		if err != nil {
			l.OnReadingError(err)
			return
		}
		l.OnReading(mifareprog.Reading{
			ReceivedAt:   time.Now(),
			SerialNumber: mifareprog.FormatUID(hex.EncodeToString(f.UID)),
			Message:      msg,
		})
	}
}
