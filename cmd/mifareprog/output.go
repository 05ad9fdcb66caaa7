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

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/ZaparooProject/go-mifareprog/detection"
)

const progressWidth = 20

// Output handles consistent formatting of messages
type Output struct {
	w       io.Writer
	verbose bool
}

// NewOutput creates a new output handler
func NewOutput(w io.Writer, verbose bool) *Output {
	return &Output{w: w, verbose: verbose}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

// Cards prints the cards reported by the scan endpoint
func (o *Output) Cards(cards []mifareprog.CardRecord) {
	o.printf("Found %d card(s)\n", len(cards))
	for _, card := range cards {
		info := card.Info()
		o.printf("CARD: %s on %s\n", info, card.Reader)
		o.printf("   ATR: %s\n", mifareprog.FormatATR(card.ATR))
		if o.verbose && info.Spec.MemorySize > 0 {
			o.printf("   Memory: %d bytes, %d sectors, %d blocks of %d bytes\n",
				info.Spec.MemorySize, info.Spec.SectorCount, info.Spec.BlockCount, info.Spec.BlockSize)
		}
	}
}

// Program prints a summary of card data
func (o *Output) Program(card *mifareprog.CardData) {
	name := card.ProgramName
	if name == "" {
		name = "(unnamed)"
	}
	o.printf("Program: %s\n", name)
	if card.Timestamp != "" {
		o.printf("   Created: %s\n", card.Timestamp)
	}
	o.printf("   Sectors: %d\n", card.SectorData.Len())
	if !o.verbose {
		return
	}
	card.SectorData.Each(func(id string, sector mifareprog.Sector) bool {
		o.printf("   Sector %s\n", id)
		for i, block := range sector.Blocks {
			o.printf("      %d: %s\n", i, mifareprog.FormatHex(block, mifareprog.DefaultHexGroupSize, " "))
		}
		if sector.Keys != nil && sector.Keys.KeyA != "" {
			o.printf("      Key A: %s\n", mifareprog.FormatHex(sector.Keys.KeyA, 2, ":"))
		}
		if sector.Keys != nil && sector.Keys.KeyB != "" {
			o.printf("      Key B: %s\n", mifareprog.FormatHex(sector.Keys.KeyB, 2, ":"))
		}
		return true
	})
}

// Validation prints the outcome of validating sector data
func (o *Output) Validation(problems mifareprog.ValidationErrors) {
	if len(problems) == 0 {
		o.printf("OK: sector data is valid\n")
		return
	}
	o.printf("FAIL: %d problem(s)\n", len(problems))
	for _, p := range problems {
		o.printf("   - %s\n", p)
	}
}

// Progress prints one progress line
func (o *Output) Progress(percent float64, status string) {
	filled := int(percent / 100 * progressWidth)
	filled = max(0, min(filled, progressWidth))
	bar := strings.Repeat("#", filled) + strings.Repeat(" ", progressWidth-filled)
	o.printf("[%s] %3.0f%% %s\n", bar, percent, status)
}

// Reading prints a card presented to the reader
func (o *Output) Reading(r mifareprog.Reading) {
	o.printf("CARD: Card detected (UID: %s)\n", r.SerialNumber)
	if !o.verbose {
		return
	}
	for _, text := range r.Texts() {
		o.printf("   NDEF: %q\n", text)
	}
}

// Devices prints discovered reader locations
func (o *Output) Devices(devices []detection.DeviceInfo) {
	if len(devices) == 0 {
		o.printf("No readers found\n")
		return
	}
	o.printf("Found %d possible reader(s)\n", len(devices))
	for _, d := range devices {
		o.printf("   %s\n", d)
		if o.verbose {
			for k, v := range d.Metadata {
				o.printf("      %s: %s\n", k, v)
			}
		}
	}
}

// Success prints a success line
func (o *Output) Success(format string, args ...any) {
	o.printf("OK: "+format+"\n", args...)
}

// Dump prints data as a hex dump when verbose
func (o *Output) Dump(title string, data []byte) {
	if o.verbose {
		_ = mifareprog.HexDump(o.w, data, title)
	}
}
