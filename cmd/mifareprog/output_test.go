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
	"bytes"
	"testing"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/ZaparooProject/go-mifareprog/detection"
	"github.com/stretchr/testify/assert"
)

func TestOutputProgress(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	o := NewOutput(&buf, false)
	o.Progress(50, "Programming sector 2...")
	o.Progress(100, "Programming sector 4...")

	assert.Equal(t,
		"[##########          ]  50% Programming sector 2...\n"+
			"[####################] 100% Programming sector 4...\n",
		buf.String())
}

func TestOutputValidation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	o := NewOutput(&buf, false)
	o.Validation(mifareprog.ValidationErrors{"Sector 1: Must have exactly 4 blocks"})
	assert.Equal(t, "FAIL: 1 problem(s)\n   - Sector 1: Must have exactly 4 blocks\n", buf.String())
}

func TestOutputDevices(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	o := NewOutput(&buf, false)
	o.Devices(nil)
	o.Devices([]detection.DeviceInfo{{Transport: "uart", Path: "/dev/ttyUSB0", Name: "CH340"}})
	assert.Equal(t,
		"No readers found\nFound 1 possible reader(s)\n   uart /dev/ttyUSB0 (CH340)\n",
		buf.String())
}
