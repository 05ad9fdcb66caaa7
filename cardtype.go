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
	"strings"
)

// CardType identifies a MIFARE card family
type CardType int

const (
	// CardTypeUnknown is any card whose ATR matches no known pattern
	CardTypeUnknown CardType = iota
	CardTypeClassic1K
	CardTypeClassic4K
	CardTypeUltralight
	CardTypeUltralightC
	CardTypeDESFireEV1
	CardTypeDESFireEV2
	CardTypeDESFireEV3
	CardTypePlusS
	CardTypePlusX
)

// String returns the marketing name of the card type
func (t CardType) String() string {
	switch t {
	case CardTypeClassic1K:
		return "MIFARE Classic 1K"
	case CardTypeClassic4K:
		return "MIFARE Classic 4K"
	case CardTypeUltralight:
		return "MIFARE Ultralight"
	case CardTypeUltralightC:
		return "MIFARE Ultralight C"
	case CardTypeDESFireEV1:
		return "MIFARE DESFire EV1"
	case CardTypeDESFireEV2:
		return "MIFARE DESFire EV2"
	case CardTypeDESFireEV3:
		return "MIFARE DESFire EV3"
	case CardTypePlusS:
		return "MIFARE Plus S"
	case CardTypePlusX:
		return "MIFARE Plus X"
	case CardTypeUnknown:
		return "Unknown MIFARE"
	default:
		return "Unknown MIFARE"
	}
}

// IsClassic reports whether the card uses the sector/block layout that
// SectorData describes
func (t CardType) IsClassic() bool {
	return t == CardTypeClassic1K || t == CardTypeClassic4K
}

type atrPattern struct {
	pattern  string
	cardType CardType
}

// Checked in order, first containment wins.
var atrPatterns = []atrPattern{
	{"3B8F8001804F0CA000000306030001000000006A", CardTypeClassic1K},
	{"3B8F8001804F0CA0000003060300010000000068", CardTypeClassic1K},
	{"3B8F8001804F0CA000000306030002000000006B", CardTypeClassic4K},
	{"3B8F8001804F0CA0000003060300020000000069", CardTypeClassic4K},
	{"3B8080018080", CardTypeUltralight},
	{"3B8F8001804F0CA000000306030003000000006C", CardTypeUltralight},
	{"3B8180018080", CardTypeDESFireEV1},
	{"3B8A80018080", CardTypeDESFireEV1},
}

// Fallback prefixes when no full pattern matches.
var atrFamilies = []atrPattern{
	{"3B8F8001804F0CA00000030603", CardTypeClassic1K},
	{"3B8080", CardTypeUltralight},
	{"3B8180", CardTypeDESFireEV2},
	{"3B8A80", CardTypeDESFireEV2},
}

// DetectCardType determines the card family from an ATR. Spaces are ignored
// and matching is case-insensitive.
func DetectCardType(atr string) CardType {
	clean := strings.ToUpper(strings.ReplaceAll(atr, " ", ""))
	if clean == "" {
		return CardTypeUnknown
	}

	for _, p := range atrPatterns {
		if strings.Contains(clean, p.pattern) {
			return p.cardType
		}
	}
	for _, p := range atrFamilies {
		if strings.Contains(clean, p.pattern) {
			return p.cardType
		}
	}
	return CardTypeUnknown
}

// CardSpec describes the memory layout of a card family
type CardSpec struct {
	MemorySize  int
	SectorCount int
	BlockCount  int
	BlockSize   int
}

var cardSpecs = map[CardType]CardSpec{
	CardTypeClassic1K:   {MemorySize: 1024, SectorCount: 16, BlockCount: 64, BlockSize: 16},
	CardTypeClassic4K:   {MemorySize: 4096, SectorCount: 40, BlockCount: 256, BlockSize: 16},
	CardTypeUltralight:  {MemorySize: 512, BlockCount: 16, BlockSize: 4},
	CardTypeUltralightC: {MemorySize: 1536, BlockCount: 48, BlockSize: 4},
	// DESFire memory is variable; 8K is the common size
	CardTypeDESFireEV1: {MemorySize: 8192},
	CardTypeDESFireEV2: {MemorySize: 8192},
	CardTypeDESFireEV3: {MemorySize: 8192},
}

// CardSpecs returns the memory layout of t. The second result is false for
// families without a known layout.
func CardSpecs(t CardType) (CardSpec, bool) {
	spec, ok := cardSpecs[t]
	return spec, ok
}

// CardInfo contains information about a detected card
type CardInfo struct {
	UID    string
	ATR    string
	Reader string
	Spec   CardSpec
	Type   CardType
}

// NewCardInfo builds a CardInfo from the values reported by a reader
func NewCardInfo(atr, uid, reader string) CardInfo {
	cardType := DetectCardType(atr)
	spec, _ := CardSpecs(cardType)
	return CardInfo{
		Type:   cardType,
		UID:    uid,
		ATR:    atr,
		Reader: reader,
		Spec:   spec,
	}
}

func (c CardInfo) String() string {
	uid := c.UID
	if uid == "" {
		uid = "Unknown"
	}
	return fmt.Sprintf("%s (UID: %s)", c.Type, uid)
}
