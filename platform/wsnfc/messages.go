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

import "encoding/json"

// Message types
const (
	// Phone to hub
	TypeRegister     = "registerDevice"
	TypeReading      = "reading"
	TypeReadingError = "readingError"

	// Hub to phone
	TypeRegistered = "registered"
	TypeStartScan  = "startScan"
	TypeStopScan   = "stopScan"
	TypeError      = "error"
)

// Error codes sent in TypeError messages
const (
	CodeParseError     = "PARSE_ERROR"
	CodeInvalidMessage = "INVALID_MESSAGE_TYPE"
	CodeInvalidPayload = "INVALID_PAYLOAD"
	CodeUnknownType    = "UNKNOWN_TYPE"
)

// Envelope wraps every websocket message
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RegisterPayload is sent by a phone right after connecting
type RegisterPayload struct {
	Name string `json:"name"`
	// NFC is false when the browser lacks Web NFC
	NFC bool `json:"nfc"`
}

// RegisteredPayload acknowledges a registration
type RegisteredPayload struct {
	DeviceID string `json:"deviceId"`
}

// ReadingPayload is one card read. Message holds the raw NDEF message as hex.
type ReadingPayload struct {
	SerialNumber string `json:"serialNumber"`
	Message      string `json:"message,omitempty"`
}

// ReadingErrorPayload reports a failed read
type ReadingErrorPayload struct {
	Message string `json:"message"`
}

// ErrorPayload reports a protocol problem to the phone
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newEnvelope(msgType, id string, payload any) (Envelope, error) {
	env := Envelope{Type: msgType, ID: id}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err //nolint:wrapcheck // wrapped by caller
	}
	env.Payload = raw
	return env, nil
}
