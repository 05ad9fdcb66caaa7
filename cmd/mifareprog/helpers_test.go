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
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	testutil "github.com/ZaparooProject/go-mifareprog/internal/testing"
	"github.com/stretchr/testify/require"
)

// newBackend serves the scan endpoint and one valid program token "good"
func newBackend(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/scan_card":
			_, _ = w.Write(testutil.BuildScanResponse(
				testutil.ScanCard{Reader: "ACS ACR122U 00", ATR: testutil.Classic1KATR, UID: "04A22BC1"},
			))
		case r.URL.Path == "/api/program_data/good":
			_, _ = w.Write(testutil.BuildProgramResponse("Lobby", testutil.BuildSectorData(1)))
		case strings.HasPrefix(r.URL.Path, "/api/program_data/"):
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write(testutil.BuildTokenErrorResponse())
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

// runApp runs the CLI with args and returns its output
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := newApp(&buf).Run(context.Background(), append([]string{"mifareprog"}, args...))
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validProgramJSON = `{
  "program_name": "Lobby",
  "sector_data": {
    "1": {
      "blocks": [
        "00000000000000000000000000000000",
        "00000000000000000000000000000000",
        "00000000000000000000000000000000",
        "FFFFFFFFFFFF078069FFFFFFFFFFFF00"
      ],
      "keys": {"keyA": "FFFFFFFFFFFF"}
    }
  }
}`
