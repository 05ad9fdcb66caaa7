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

/*
Package mifareprog provides the client side of a MIFARE card programming system.

It covers the pieces a programming station needs before any data reaches a card:
hex-string handling for block and key material, validation of sector data,
card type detection from ATRs, and the platform contract that NFC readers
implement. Higher level packages build on it:

  - scan: client for the backend scan and program distribution endpoints
  - programmer: NFC reader wrapper with scan subscriptions and sector programming
  - feedback: loading, error and success rendering into a page document
  - platform/uart, platform/wsnfc: reader platforms (serial line readers, Web NFC phones)
  - detection: discovery of candidate reader locations

Basic Usage:

	data := mifareprog.NewSectorData()
	data.Set("1", mifareprog.Sector{
	    Blocks: []string{
	        "00000000000000000000000000000000",
	        "00000000000000000000000000000000",
	        "00000000000000000000000000000000",
	        "FFFFFFFFFFFFFF078069FFFFFFFFFFFF",
	    },
	    Keys: &mifareprog.SectorKeys{KeyA: "FFFFFFFFFFFF"},
	})

	if problems := mifareprog.ValidateSectorData(data); len(problems) > 0 {
	    for _, p := range problems {
	        fmt.Println(p)
	    }
	}

	fmt.Println(mifareprog.FormatHex("deadbeef", 2, "-")) // DE-AD-BE-EF

Sector Data:

Sector data is decoded from JSON at the boundary. Sector order follows the
document order, and a sector whose blocks field is missing or is not an array
of strings decodes with nil Blocks so validation can report it.

Error Handling:

All operations return errors that can be inspected with errors.Is:

	if errors.Is(err, mifareprog.ErrNoCardsFound) {
	    // Ask the user to present a card
	}

Validation problems are returned as ValidationErrors, an ordered list of
human-readable strings that also satisfies errors.Is(err, ErrInvalidFormat).
*/
package mifareprog
