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

// TLV is one tag-length-value object with a single byte tag and length.
type TLV struct {
	Value  []byte
	Tag    byte
	Length int
}

// ParseTLV decodes consecutive TLV objects. Parsing stops at the first
// object whose header or value is truncated.
func ParseTLV(data []byte) []TLV {
	var objects []TLV
	for i := 0; i+1 < len(data); {
		length := int(data[i+1])
		end := i + 2 + length
		if end > len(data) {
			break
		}
		objects = append(objects, TLV{
			Tag:    data[i],
			Length: length,
			Value:  data[i+2 : end],
		})
		i = end
	}
	return objects
}
