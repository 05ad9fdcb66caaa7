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

// Package wsnfc lets a phone with Web NFC act as the card reader. The phone
// opens a websocket to the Hub, registers, and forwards every NDEF reading.
package wsnfc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 5 * time.Second

// Errors
var (
	// ErrPhoneFault is wrapped around read errors reported by a phone
	ErrPhoneFault  = errors.New("phone reported an error")
	ErrScanRunning = errors.New("scan already running")
)

// DeviceInfo describes a registered phone
type DeviceInfo struct {
	ID   string
	Name string
	NFC  bool
}

type device struct {
	conn *websocket.Conn
	info DeviceInfo
	mu   sync.Mutex
}

func (d *device) send(env Envelope) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_ = d.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := d.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("write %s to %s: %w", env.Type, d.info.ID, err)
	}
	return nil
}

// Option configures a Hub
type Option func(*Hub)

// WithLogger sets the log entry
func WithLogger(log *logrus.Entry) Option {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// WithCheckOrigin restricts which origins may connect. All origins are
// accepted by default.
func WithCheckOrigin(check func(*http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = check
	}
}

// Hub accepts phone connections and implements mifareprog.Platform
type Hub struct {
	log      *logrus.Entry
	devices  map[string]*device
	readers  map[*Reader]mifareprog.Listener
	upgrader websocket.Upgrader
	mu       sync.RWMutex
}

// NewHub creates a hub with no connected phones
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		log:     mifareprog.Component("wsnfc"),
		devices: make(map[string]*device),
		readers: make(map[*Reader]mifareprog.Listener),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Supported reports whether a phone with Web NFC is connected
func (h *Hub) Supported() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, d := range h.devices {
		if d.info.NFC {
			return true
		}
	}
	return false
}

// NewReader returns a reader fed by every connected phone
func (h *Hub) NewReader() (mifareprog.Reader, error) {
	return &Reader{hub: h}, nil
}

// Devices lists the registered phones ordered by name and id
func (h *Hub) Devices() []DeviceInfo {
	h.mu.RLock()
	out := make([]DeviceInfo, 0, len(h.devices))
	for _, d := range h.devices {
		out = append(out, d.info)
	}
	h.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Close disconnects every phone
func (h *Hub) Close() error {
	h.mu.Lock()
	devices := make([]*device, 0, len(h.devices))
	for _, d := range h.devices {
		devices = append(devices, d)
	}
	h.mu.Unlock()

	var errs []error
	for _, d := range devices {
		if err := d.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ServeHTTP upgrades the request and serves one phone until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	log := h.log.WithField("remote", r.RemoteAddr)
	log.Debug("phone connected")

	d, err := h.register(conn)
	if err != nil {
		log.WithError(err).Warn("registration failed")
		return
	}
	defer h.unregister(d)

	log = log.WithField("device", d.info.ID)
	log.Infof("registered %q (nfc: %t)", d.info.Name, d.info.NFC)

	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("phone disconnected")
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		h.handleMessage(d, raw, log)
	}
}

func (h *Hub) register(conn *websocket.Conn) (*device, error) {
	d := &device{conn: conn}

	msgType, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read registration: %w", err)
	}
	if msgType != websocket.TextMessage {
		h.sendError(d, "", CodeInvalidMessage, "Expected text message")
		return nil, fmt.Errorf("registration: unexpected message type %d", msgType)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(d, "", CodeParseError, "Invalid message format")
		return nil, fmt.Errorf("parse registration: %w", err)
	}
	if env.Type != TypeRegister {
		h.sendError(d, env.ID, CodeInvalidMessage, fmt.Sprintf("Expected '%s' message", TypeRegister))
		return nil, fmt.Errorf("registration: got %q", env.Type)
	}

	var reg RegisterPayload
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &reg); err != nil {
			h.sendError(d, env.ID, CodeInvalidPayload, "Invalid registration request format")
			return nil, fmt.Errorf("parse registration payload: %w", err)
		}
	}

	d.info = DeviceInfo{ID: uuid.NewString(), Name: reg.Name, NFC: reg.NFC}
	if d.info.Name == "" {
		d.info.Name = "phone"
	}

	h.mu.Lock()
	h.devices[d.info.ID] = d
	scanning := len(h.readers) > 0
	h.mu.Unlock()

	ack, err := newEnvelope(TypeRegistered, env.ID, RegisteredPayload{DeviceID: d.info.ID})
	if err == nil {
		err = d.send(ack)
	}
	if err != nil {
		h.unregister(d)
		return nil, err
	}
	if scanning && d.info.NFC {
		_ = d.send(Envelope{Type: TypeStartScan})
	}
	return d, nil
}

func (h *Hub) unregister(d *device) {
	h.mu.Lock()
	delete(h.devices, d.info.ID)
	h.mu.Unlock()
}

func (h *Hub) handleMessage(d *device, raw []byte, log *logrus.Entry) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.WithError(err).Debug("unparseable message")
		h.sendError(d, "", CodeParseError, "Invalid message format")
		return
	}

	switch env.Type {
	case TypeReading:
		var p ReadingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(d, env.ID, CodeInvalidPayload, "Invalid reading payload")
			return
		}
		reading, err := decodeReading(p)
		if err != nil {
			h.broadcastError(err)
			return
		}
		h.broadcastReading(reading)
	case TypeReadingError:
		var p ReadingErrorPayload
		_ = json.Unmarshal(env.Payload, &p)
		h.broadcastError(fmt.Errorf("%w: %s", ErrPhoneFault, p.Message))
	default:
		log.Debugf("unknown message type %q", env.Type)
		h.sendError(d, env.ID, CodeUnknownType, fmt.Sprintf("Unknown message type: %s", env.Type))
	}
}

func decodeReading(p ReadingPayload) (mifareprog.Reading, error) {
	reading := mifareprog.Reading{
		ReceivedAt:   time.Now(),
		SerialNumber: mifareprog.FormatUID(mifareprog.CleanHex(p.SerialNumber)),
	}
	if p.Message == "" {
		return reading, nil
	}
	raw, err := mifareprog.HexToBytes(p.Message)
	if err != nil {
		return mifareprog.Reading{}, err
	}
	msg, err := mifareprog.DecodeNDEF(raw)
	if err != nil {
		return mifareprog.Reading{}, err
	}
	reading.Message = msg
	return reading, nil
}

func (h *Hub) listeners() []mifareprog.Listener {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]mifareprog.Listener, 0, len(h.readers))
	for _, l := range h.readers {
		out = append(out, l)
	}
	return out
}

func (h *Hub) broadcastReading(r mifareprog.Reading) {
	for _, l := range h.listeners() {
		l.OnReading(r)
	}
}

func (h *Hub) broadcastError(err error) {
	for _, l := range h.listeners() {
		l.OnReadingError(err)
	}
}

// broadcast sends env to every NFC capable phone
func (h *Hub) broadcast(env Envelope) int {
	h.mu.RLock()
	targets := make([]*device, 0, len(h.devices))
	for _, d := range h.devices {
		if d.info.NFC {
			targets = append(targets, d)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, d := range targets {
		if err := d.send(env); err != nil {
			h.log.WithError(err).Warn("broadcast failed")
			continue
		}
		sent++
	}
	return sent
}

func (*Hub) sendError(d *device, id, code, message string) {
	env, err := newEnvelope(TypeError, id, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	_ = d.send(env)
}

func (h *Hub) attach(r *Reader, l mifareprog.Listener) {
	h.mu.Lock()
	h.readers[r] = l
	h.mu.Unlock()
}

// detach removes r and reports whether no readers remain
func (h *Hub) detach(r *Reader) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.readers, r)
	return len(h.readers) == 0
}

// Reader receives readings from every phone connected to its hub
type Reader struct {
	hub    *Hub
	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

// Scan asks every NFC capable phone to start scanning. It fails with
// mifareprog.ErrUnsupportedPlatform when no such phone is connected.
func (r *Reader) Scan(ctx context.Context, l mifareprog.Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		select {
		case <-r.done:
			r.cancel, r.done = nil, nil
		default:
			return ErrScanRunning
		}
	}

	r.hub.attach(r, l)
	if r.hub.broadcast(Envelope{Type: TypeStartScan}) == 0 {
		r.hub.detach(r)
		return mifareprog.ErrUnsupportedPlatform
	}

	scanCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done
	go func() {
		defer close(done)
		<-scanCtx.Done()
		if r.hub.detach(r) {
			r.hub.broadcast(Envelope{Type: TypeStopScan})
		}
	}()
	return nil
}

// Stop ends the scan. Phones are told to stop once no reader remains.
func (r *Reader) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel == nil {
		return nil
	}
	r.cancel()
	<-r.done
	r.cancel, r.done = nil, nil
	return nil
}
