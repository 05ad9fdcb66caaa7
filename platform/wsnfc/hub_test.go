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

package wsnfc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
	testutil "github.com/ZaparooProject/go-mifareprog/internal/testing"
	"github.com/gorilla/websocket"
	"github.com/hsanjuan/go-ndef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		_ = hub.Close()
		server.Close()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	env, err := newEnvelope(msgType, "", payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(env))
}

func receive(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func registerPhone(t *testing.T, url string, nfc bool) (*websocket.Conn, string) {
	t.Helper()
	conn := dial(t, url)
	send(t, conn, TypeRegister, RegisterPayload{Name: "pixel", NFC: nfc})

	env := receive(t, conn)
	require.Equal(t, TypeRegistered, env.Type)
	var ack RegisteredPayload
	require.NoError(t, json.Unmarshal(env.Payload, &ack))
	require.NotEmpty(t, ack.DeviceID)
	return conn, ack.DeviceID
}

func TestRegistration(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t)
	assert.False(t, hub.Supported())

	_, id := registerPhone(t, url, true)
	assert.True(t, hub.Supported())

	devices := hub.Devices()
	require.Len(t, devices, 1)
	assert.Equal(t, DeviceInfo{ID: id, Name: "pixel", NFC: true}, devices[0])
}

func TestRegistrationWithoutNFC(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t)
	registerPhone(t, url, false)
	assert.False(t, hub.Supported())

	r, err := hub.NewReader()
	require.NoError(t, err)
	err = r.Scan(context.Background(), testutil.NewRecordingListener())
	require.ErrorIs(t, err, mifareprog.ErrUnsupportedPlatform)
}

func TestRegistrationRejected(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t)
	conn := dial(t, url)
	send(t, conn, TypeReading, ReadingPayload{SerialNumber: "04a22bc1"})

	env := receive(t, conn)
	assert.Equal(t, TypeError, env.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, CodeInvalidMessage, p.Code)

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.Empty(t, hub.Devices())
}

func TestScanForwardsReadings(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t)
	phone, _ := registerPhone(t, url, true)

	r, err := hub.NewReader()
	require.NoError(t, err)
	l := testutil.NewRecordingListener()
	require.NoError(t, r.Scan(context.Background(), l))
	assert.Equal(t, TypeStartScan, receive(t, phone).Type)
	require.ErrorIs(t, r.Scan(context.Background(), l), ErrScanRunning)

	raw, err := ndef.NewTextMessage("program:lobby", "en").Marshal()
	require.NoError(t, err)
	send(t, phone, TypeReading, ReadingPayload{
		SerialNumber: "04:a2:2b:c1",
		Message:      hex.EncodeToString(raw),
	})

	reading, ok := l.NextReading(waitFor)
	require.True(t, ok)
	assert.Equal(t, testutil.TestClassic1KSerial, reading.SerialNumber)
	assert.Equal(t, []string{"program:lobby"}, reading.Texts())

	send(t, phone, TypeReadingError, ReadingErrorPayload{Message: "tag lost"})
	readErr, ok := l.NextError(waitFor)
	require.True(t, ok)
	require.ErrorIs(t, readErr, ErrPhoneFault)
	assert.Contains(t, readErr.Error(), "tag lost")

	send(t, phone, TypeReading, ReadingPayload{SerialNumber: "04a22bc1", Message: "zz"})
	readErr, ok = l.NextError(waitFor)
	require.True(t, ok)
	require.ErrorIs(t, readErr, mifareprog.ErrInvalidFormat)

	stopper, ok := r.(mifareprog.Stopper)
	require.True(t, ok)
	require.NoError(t, stopper.Stop())
	assert.Equal(t, TypeStopScan, receive(t, phone).Type)
}

func TestLateRegistrationJoinsScan(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t)
	registerPhone(t, url, true)

	r, err := hub.NewReader()
	require.NoError(t, err)
	require.NoError(t, r.Scan(context.Background(), testutil.NewRecordingListener()))
	t.Cleanup(func() { _ = r.(mifareprog.Stopper).Stop() })

	late, _ := registerPhone(t, url, true)
	assert.Equal(t, TypeStartScan, receive(t, late).Type)
}

func TestUnknownMessageType(t *testing.T) {
	t.Parallel()

	_, url := newTestHub(t)
	phone, _ := registerPhone(t, url, true)
	send(t, phone, "writeRequest", nil)

	env := receive(t, phone)
	assert.Equal(t, TypeError, env.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, CodeUnknownType, p.Code)
}

func TestDisconnectUnregisters(t *testing.T) {
	t.Parallel()

	hub, url := newTestHub(t)
	phone, _ := registerPhone(t, url, true)
	require.NoError(t, phone.Close())

	assert.Eventually(t, func() bool { return len(hub.Devices()) == 0 }, waitFor, 10*time.Millisecond)
}
