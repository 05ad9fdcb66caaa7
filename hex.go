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
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// DefaultHexGroupSize is the group width used by FormatHex when none is given.
	DefaultHexGroupSize = 2
	// DefaultHexSeparator separates groups in FormatHex output.
	DefaultHexSeparator = " "
)

// Fixed hex lengths of MIFARE Classic material
const (
	BlockHexLength  = 32 // 16 bytes per block
	KeyHexLength    = 12 // 6 bytes per key
	BlocksPerSector = 4
)

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// CleanHex removes every character that is not a hex digit.
func CleanHex(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if isHexDigit(r) {
			_, _ = b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateHex reports whether input, once stripped of non-hex characters,
// has expectedLength digits. An expectedLength of zero or less skips the
// length check, so any input is accepted.
func ValidateHex(input string, expectedLength int) bool {
	clean := CleanHex(input)
	if expectedLength > 0 && len(clean) != expectedLength {
		return false
	}
	for _, r := range clean {
		if !isHexDigit(r) {
			return false
		}
	}
	return true
}

// FormatHex strips non-hex characters, uppercases the rest and joins groups
// of groupSize digits with separator. The last group may be shorter.
func FormatHex(input string, groupSize int, separator string) string {
	if groupSize <= 0 {
		groupSize = DefaultHexGroupSize
	}
	clean := strings.ToUpper(CleanHex(input))
	if clean == "" {
		return ""
	}

	groups := make([]string, 0, (len(clean)+groupSize-1)/groupSize)
	for i := 0; i < len(clean); i += groupSize {
		end := min(i+groupSize, len(clean))
		groups = append(groups, clean[i:end])
	}
	return strings.Join(groups, separator)
}

// PadHex strips and uppercases input, then right-pads it with '0' up to
// length. Longer input is returned as is.
func PadHex(input string, length int) string {
	clean := strings.ToUpper(CleanHex(input))
	if len(clean) >= length {
		return clean
	}
	return clean + strings.Repeat("0", length-len(clean))
}

// HexToBytes decodes a hex string that may contain space or colon separators.
func HexToBytes(input string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "").Replace(input)
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("%w: hex length must be even, got %d", ErrInvalidFormat, len(clean))
	}
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return data, nil
}

// BytesToHex encodes data as uppercase hex with separator between bytes.
func BytesToHex(data []byte, separator string) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, separator)
}

// FormatUID renders a UID as colon separated byte pairs.
func FormatUID(uid string) string {
	if uid == "" {
		return "Unknown"
	}
	clean := strings.ToUpper(strings.ReplaceAll(uid, " ", ""))
	return groupPairs(clean, ":")
}

// FormatATR renders an ATR as space separated byte pairs.
func FormatATR(atr string) string {
	if atr == "" {
		return "Unknown"
	}
	clean := strings.ToUpper(strings.ReplaceAll(atr, " ", ""))
	return groupPairs(clean, " ")
}

func groupPairs(s, separator string) string {
	parts := make([]string, 0, (len(s)+1)/2)
	for i := 0; i < len(s); i += 2 {
		parts = append(parts, s[i:min(i+2, len(s))])
	}
	return strings.Join(parts, separator)
}

// SplitHex splits a hex string into chunks of chunkSize bytes, each rendered
// as space separated byte pairs.
func SplitHex(input string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = 16
	}
	clean := strings.NewReplacer(" ", "", ":", "").Replace(input)
	width := chunkSize * 2

	chunks := make([]string, 0, (len(clean)+width-1)/width)
	for i := 0; i < len(clean); i += width {
		chunks = append(chunks, groupPairs(clean[i:min(i+width, len(clean))], " "))
	}
	return chunks
}

// Checksum returns the low byte of the sum of data.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}
