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

package frame

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Frame errors
var (
	ErrMalformedFrame   = errors.New("malformed frame")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrLineTooLong      = errors.New("line too long")
)

// Kind distinguishes decoded lines
type Kind int

const (
	// KindReading is a card read
	KindReading Kind = iota
	// KindError is a read error reported by the reader
	KindError
	// KindComment is a diagnostic line
	KindComment
)

// Frame is one decoded line
type Frame struct {
	Message string
	UID     []byte
	NDEF    []byte
	Kind    Kind
}

// CalculateChecksum returns the low byte of the sum of data
func CalculateChecksum(data ...[]byte) byte {
	var sum byte
	for _, part := range data {
		for _, b := range part {
			sum += b
		}
	}
	return sum
}

// EncodeReading builds the line for a card read, without line ending
func EncodeReading(uid, ndef []byte) string {
	return fmt.Sprintf("%X%c%X%c%02X", uid, Separator, ndef, Separator, CalculateChecksum(uid, ndef))
}

// EncodeError builds the line for a read error, without line ending
func EncodeError(message string) string {
	return ErrorPrefix + strings.ReplaceAll(message, LineEnding, " ")
}

// Decode parses one line. Trailing CR/LF is ignored.
func Decode(line string) (Frame, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) > MaxLineLength {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrLineTooLong, len(line))
	}

	switch {
	case strings.HasPrefix(line, ErrorPrefix):
		return Frame{Kind: KindError, Message: strings.TrimSpace(strings.TrimPrefix(line, ErrorPrefix))}, nil
	case strings.HasPrefix(line, CommentPrefix), strings.TrimSpace(line) == "":
		return Frame{Kind: KindComment, Message: strings.TrimSpace(strings.TrimPrefix(line, CommentPrefix))}, nil
	}

	fields := strings.Split(line, string(Separator))
	if len(fields) != 3 {
		return Frame{}, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedFrame, len(fields))
	}

	uid, err := hex.DecodeString(fields[0])
	if err != nil {
		return Frame{}, fmt.Errorf("%w: uid: %w", ErrMalformedFrame, err)
	}
	if len(uid) < MinUIDLength || len(uid) > MaxUIDLength {
		return Frame{}, fmt.Errorf("%w: uid length %d", ErrMalformedFrame, len(uid))
	}
	ndef, err := hex.DecodeString(fields[1])
	if err != nil {
		return Frame{}, fmt.Errorf("%w: ndef: %w", ErrMalformedFrame, err)
	}
	ck, err := hex.DecodeString(fields[2])
	if err != nil || len(ck) != 1 {
		return Frame{}, fmt.Errorf("%w: checksum field %q", ErrMalformedFrame, fields[2])
	}

	if want := CalculateChecksum(uid, ndef); ck[0] != want {
		return Frame{}, fmt.Errorf("%w: got %02X, want %02X", ErrChecksumMismatch, ck[0], want)
	}
	return Frame{Kind: KindReading, UID: uid, NDEF: ndef}, nil
}
