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
	"fmt"
)

// CardData is the payload of one programming session.
type CardData struct {
	SectorData  *SectorData `json:"sector_data"`
	ProgramName string      `json:"program_name,omitempty"`
	Timestamp   string      `json:"timestamp,omitempty"`
}

// Validate checks the sector data of c.
func (c *CardData) Validate() ValidationErrors {
	if c == nil {
		return ValidationErrors{invalidSectorDataFormat}
	}
	return ValidateSectorData(c.SectorData)
}

// ParseCardData decodes a card data document. A document without sector
// data, or with sector data that fails validation, is rejected.
func ParseCardData(raw []byte) (*CardData, error) {
	var card CardData
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, fmt.Errorf("%w: card data: %w", ErrInvalidFormat, err)
	}
	if card.SectorData == nil {
		return nil, fmt.Errorf("%w: missing sector_data", ErrInvalidCardData)
	}
	if err := card.Validate().Err(); err != nil {
		return nil, err
	}
	return &card, nil
}

// CardRecord is one card reported by the scan endpoint. Fields the client
// does not interpret are kept in Raw.
type CardRecord struct {
	Reader string          `json:"reader"`
	ATR    string          `json:"atr"`
	UID    string          `json:"uid,omitempty"`
	Type   string          `json:"type,omitempty"`
	Raw    json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the full record alongside the known fields.
func (r *CardRecord) UnmarshalJSON(data []byte) error {
	type plain CardRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: card record: %w", ErrInvalidFormat, err)
	}
	*r = CardRecord(p)
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Info detects the card type from the record's ATR.
func (r CardRecord) Info() CardInfo {
	return NewCardInfo(r.ATR, r.UID, r.Reader)
}
