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

// Package frame encodes and decodes the line protocol spoken by serial NFC readers.
//
// Each card read is one line of three colon separated fields:
//
//	<UID hex>:<NDEF hex>:<checksum hex>
//
// The checksum is the low byte of the sum of the UID and NDEF bytes. The NDEF
// field is empty for cards without NDEF content. A failed read is reported as
//
//	ERR:<message>
//
// and lines starting with '#' are reader diagnostics.
package frame

// Line markers
const (
	Separator     = ':'
	ErrorPrefix   = "ERR:"
	CommentPrefix = "#"
	LineEnding    = "\n"
)

// Line size limits
const (
	MaxLineLength = 4096 // Longest line a reader may send
	MaxUIDLength  = 10   // Triple size ISO 14443-3 UID
	MinUIDLength  = 4
)

// Commands sent from host to reader
const (
	CommandStartScan = "SCAN"
	CommandStopScan  = "STOP"
)
