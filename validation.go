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
	"strings"
)

const invalidSectorDataFormat = "Invalid sector data format"

// ValidationErrors is an ordered list of human-readable validation problems.
// An empty list means the input is valid.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidFormat, strings.Join(v, "; "))
}

func (ValidationErrors) Unwrap() error {
	return ErrInvalidFormat
}

// Err returns v as an error, or nil when there are no problems.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ValidateSectorData checks every sector in order and collects all problems.
// Empty sector data is valid.
func ValidateSectorData(data *SectorData) ValidationErrors {
	if data == nil {
		return ValidationErrors{invalidSectorDataFormat}
	}

	var problems ValidationErrors
	data.Each(func(id string, sector Sector) bool {
		problems = append(problems, validateSector(id, sector)...)
		return true
	})
	return problems
}

func validateSector(id string, sector Sector) ValidationErrors {
	if sector.Blocks == nil {
		return ValidationErrors{fmt.Sprintf("Sector %s: Missing or invalid blocks array", id)}
	}

	var problems ValidationErrors
	if len(sector.Blocks) != BlocksPerSector {
		problems = append(problems, fmt.Sprintf("Sector %s: Must have exactly %d blocks", id, BlocksPerSector))
	}

	for i, block := range sector.Blocks {
		if !ValidateHex(block, BlockHexLength) {
			problems = append(problems,
				fmt.Sprintf("Sector %s, Block %d: Invalid hex data (must be %d hex characters)", id, i, BlockHexLength))
		}
	}

	if sector.Keys != nil {
		if sector.Keys.KeyA != "" && !ValidateHex(sector.Keys.KeyA, KeyHexLength) {
			problems = append(problems,
				fmt.Sprintf("Sector %s: Invalid Key A (must be %d hex characters)", id, KeyHexLength))
		}
		if sector.Keys.KeyB != "" && !ValidateHex(sector.Keys.KeyB, KeyHexLength) {
			problems = append(problems,
				fmt.Sprintf("Sector %s: Invalid Key B (must be %d hex characters)", id, KeyHexLength))
		}
	}
	return problems
}

// ValidateSectorJSON decodes raw sector data and validates it. Anything that
// does not decode as a JSON object is reported as a single format problem.
func ValidateSectorJSON(raw []byte) ValidationErrors {
	var data SectorData
	if err := json.Unmarshal(raw, &data); err != nil {
		debugf("sector data rejected: %v", err)
		return ValidationErrors{invalidSectorDataFormat}
	}
	return ValidateSectorData(&data)
}
