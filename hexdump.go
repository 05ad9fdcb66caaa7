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
	"fmt"
	"io"
)

const hexDumpWidth = 16

// HexDump writes data to w as rows of 16 bytes: offset, hex column and a
// printable ASCII column. A non-empty title is written as a heading first.
func HexDump(w io.Writer, data []byte, title string) error {
	if title != "" {
		if _, err := fmt.Fprintf(w, "=== %s ===\n", title); err != nil {
			return fmt.Errorf("write hex dump title: %w", err)
		}
	}

	for offset := 0; offset < len(data); offset += hexDumpWidth {
		row := data[offset:min(offset+hexDumpWidth, len(data))]
		if _, err := fmt.Fprintf(w, "%04X: %-47s |%s|\n", offset, BytesToHex(row, " "), printable(row)); err != nil {
			return fmt.Errorf("write hex dump row %d: %w", offset/hexDumpWidth, err)
		}
	}
	return nil
}

func printable(data []byte) string {
	out := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			out[i] = b
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
