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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SectorKeys holds the optional authentication keys of a sector.
type SectorKeys struct {
	KeyA string `json:"keyA,omitempty"`
	KeyB string `json:"keyB,omitempty"`
}

// Sector is the content destined for one MIFARE Classic sector. Blocks is
// nil when the source document had no usable blocks array.
type Sector struct {
	Keys   *SectorKeys `json:"keys,omitempty"`
	Blocks []string    `json:"blocks"`
}

// UnmarshalJSON decodes a sector leniently: anything other than an array of
// strings under "blocks" leaves Blocks nil.
func (s *Sector) UnmarshalJSON(data []byte) error {
	s.Keys, s.Blocks = nil, nil
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var raw struct {
		Keys   *SectorKeys     `json:"keys"`
		Blocks json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: sector: %w", ErrInvalidFormat, err)
	}

	s.Keys = raw.Keys
	if len(raw.Blocks) == 0 || raw.Blocks[0] != '[' {
		return nil
	}
	var blocks []string
	if err := json.Unmarshal(raw.Blocks, &blocks); err != nil {
		return nil //nolint:nilerr // reported by validation instead
	}
	if blocks == nil {
		blocks = []string{}
	}
	s.Blocks = blocks
	return nil
}

// SectorData maps sector ids to sectors and keeps insertion order.
type SectorData struct {
	sectors map[string]Sector
	ids     []string
}

// NewSectorData returns an empty SectorData.
func NewSectorData() *SectorData {
	return &SectorData{sectors: make(map[string]Sector)}
}

// Set stores a sector. A new id is appended to the iteration order; an
// existing id keeps its position.
func (d *SectorData) Set(id string, sector Sector) {
	if d.sectors == nil {
		d.sectors = make(map[string]Sector)
	}
	if _, ok := d.sectors[id]; !ok {
		d.ids = append(d.ids, id)
	}
	d.sectors[id] = sector
}

// SetIndex stores a sector under an integer label.
func (d *SectorData) SetIndex(index int, sector Sector) {
	d.Set(strconv.Itoa(index), sector)
}

// Get returns the sector stored under id.
func (d *SectorData) Get(id string) (Sector, bool) {
	s, ok := d.sectors[id]
	return s, ok
}

// IDs returns the sector ids in iteration order.
func (d *SectorData) IDs() []string {
	out := make([]string, len(d.ids))
	copy(out, d.ids)
	return out
}

// Len returns the number of sectors.
func (d *SectorData) Len() int {
	if d == nil {
		return 0
	}
	return len(d.ids)
}

// Each calls fn for every sector in order until fn returns false.
func (d *SectorData) Each(fn func(id string, sector Sector) bool) {
	for _, id := range d.ids {
		if !fn(id, d.sectors[id]) {
			return
		}
	}
}

// MarshalJSON encodes the sectors as an object in iteration order.
func (d *SectorData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	_ = buf.WriteByte('{')
	for i, id := range d.ids {
		if i > 0 {
			_ = buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, fmt.Errorf("encode sector id %q: %w", id, err)
		}
		value, err := json.Marshal(d.sectors[id])
		if err != nil {
			return nil, fmt.Errorf("encode sector %s: %w", id, err)
		}
		_, _ = buf.Write(key)
		_ = buf.WriteByte(':')
		_, _ = buf.Write(value)
	}
	_ = buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document order of its keys.
func (d *SectorData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: sector data: %w", ErrInvalidFormat, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: sector data must be an object", ErrInvalidFormat)
	}

	*d = SectorData{sectors: make(map[string]Sector)}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return fmt.Errorf("%w: sector data: %w", ErrInvalidFormat, err)
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: unexpected token %v", ErrInvalidFormat, tok)
		}
		var sector Sector
		if err := dec.Decode(&sector); err != nil {
			return fmt.Errorf("%w: sector %s: %w", ErrInvalidFormat, id, err)
		}
		d.Set(id, sector)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: sector data: %w", ErrInvalidFormat, err)
	}
	return nil
}
