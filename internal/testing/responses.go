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

package testing

import (
	"encoding/json"
	"fmt"
)

// Sample block values
const (
	ZeroBlock    = "00000000000000000000000000000000"
	TrailerBlock = "FFFFFFFFFFFF078069FFFFFFFFFFFF00"
	DefaultKey   = "FFFFFFFFFFFF"
)

// Sample ATRs as reported by PC/SC readers
const (
	Classic1KATR = "3B8F8001804F0CA000000306030001000000006A"
	Classic4KATR = "3B8F8001804F0CA000000306030002000000006B"
)

// ScanCard describes one card in a scan response
type ScanCard struct {
	Reader string `json:"reader"`
	ATR    string `json:"atr"`
	UID    string `json:"uid,omitempty"`
	Type   string `json:"type,omitempty"`
}

// BuildScanResponse creates a successful /api/scan_card body
func BuildScanResponse(cards ...ScanCard) []byte {
	if cards == nil {
		cards = []ScanCard{}
	}
	return mustJSON(map[string]any{"success": true, "cards": cards})
}

// BuildNoCardsResponse creates a /api/scan_card body for an empty field
func BuildNoCardsResponse() []byte {
	return mustJSON(map[string]any{"success": false, "error": "No cards found"})
}

// BuildSectorData creates sector data for count sectors starting at sector 1,
// each with zero data blocks, a default trailer and Key A
func BuildSectorData(count int) map[string]any {
	sectors := make(map[string]any, count)
	for i := 1; i <= count; i++ {
		sectors[fmt.Sprint(i)] = map[string]any{
			"blocks": []string{ZeroBlock, ZeroBlock, ZeroBlock, TrailerBlock},
			"keys":   map[string]string{"keyA": DefaultKey},
		}
	}
	return sectors
}

// BuildProgramResponse creates a /api/program_data body
func BuildProgramResponse(name string, sectorData any) []byte {
	return mustJSON(map[string]any{
		"program_name": name,
		"sector_data":  sectorData,
		"timestamp":    "2025-01-01T00:00:00",
	})
}

// BuildTokenErrorResponse creates the body returned for an expired token
func BuildTokenErrorResponse() []byte {
	return mustJSON(map[string]string{"error": "Invalid or expired token"})
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
