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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCardType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		atr      string
		expected CardType
	}{
		{name: "classic 1k", atr: "3B8F8001804F0CA000000306030001000000006A", expected: CardTypeClassic1K},
		{name: "classic 4k spaced lowercase", atr: "3b 8f 80 01 80 4f 0c a0 00 00 03 06 03 00 02 00 00 00 00 6b", expected: CardTypeClassic4K},
		{name: "ultralight", atr: "3B8F8001804F0CA000000306030003000000006C", expected: CardTypeUltralight},
		{name: "desfire exact", atr: "3B8180018080", expected: CardTypeDESFireEV1},
		{name: "classic family fallback", atr: "3B8F8001804F0CA000000306030099", expected: CardTypeClassic1K},
		{name: "desfire family fallback", atr: "3B81800199", expected: CardTypeDESFireEV2},
		{name: "ultralight family fallback", atr: "3B8080FF", expected: CardTypeUltralight},
		{name: "unknown", atr: "3B0000", expected: CardTypeUnknown},
		{name: "empty", atr: "", expected: CardTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, DetectCardType(tt.atr))
		})
	}
}

func TestCardSpecs(t *testing.T) {
	t.Parallel()

	spec, ok := CardSpecs(CardTypeClassic4K)
	require.True(t, ok)
	assert.Equal(t, CardSpec{MemorySize: 4096, SectorCount: 40, BlockCount: 256, BlockSize: 16}, spec)

	_, ok = CardSpecs(CardTypePlusS)
	assert.False(t, ok)
}

func TestCardRecord_Info(t *testing.T) {
	t.Parallel()

	var rec CardRecord
	require.NoError(t, json.Unmarshal([]byte(`{
		"reader": "ACS ACR122U",
		"atr": "3B8F8001804F0CA000000306030001000000006A",
		"uid": "04A22BC1",
		"memory_size": 1024
	}`), &rec))

	assert.Contains(t, string(rec.Raw), "memory_size")
	info := rec.Info()
	assert.Equal(t, CardTypeClassic1K, info.Type)
	assert.True(t, info.Type.IsClassic())
	assert.Equal(t, 16, info.Spec.SectorCount)
	assert.Equal(t, "MIFARE Classic 1K (UID: 04A22BC1)", info.String())
	assert.Equal(t, "Unknown MIFARE (UID: Unknown)", NewCardInfo("", "", "").String())
}
