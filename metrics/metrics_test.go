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

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/go-mifareprog/programmer"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource programmer.Metrics

func (s staticSource) Metrics() programmer.Metrics {
	return programmer.Metrics(s)
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	p, err := NewProvider("")
	require.NoError(t, err)
	assert.Equal(t, DefaultNamespace, p.Namespace())
	assert.NotNil(t, p.Registry())
	assert.NotNil(t, p.Handler())
}

func TestProgrammerCollector(t *testing.T) {
	t.Parallel()

	c := NewProgrammerCollector("test", staticSource{
		State:             programmer.StateScanning,
		Readings:          5,
		ReadErrors:        1,
		SectorsProgrammed: 32,
		CardsProgrammed:   2,
		Subscribers:       3,
		LastReading:       time.Unix(1700000000, 0),
	})

	assert.Equal(t, 7, testutil.CollectAndCount(c))

	expected := `
# HELP test_programmer_cards_programmed_total Cards programmed to completion.
# TYPE test_programmer_cards_programmed_total counter
test_programmer_cards_programmed_total 2
# HELP test_programmer_scanning 1 while the reader is scanning.
# TYPE test_programmer_scanning gauge
test_programmer_scanning 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"test_programmer_cards_programmed_total", "test_programmer_scanning"))
}

func TestProgrammerCollectorRegisters(t *testing.T) {
	t.Parallel()

	p, err := NewProvider("agent")
	require.NoError(t, err)
	require.NoError(t, p.Register(NewProgrammerCollector(p.Namespace(), staticSource{})))

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agent_programmer_readings_total 0")
}

func TestHTTPMiddleware(t *testing.T) {
	t.Parallel()

	p, err := NewProvider("agent")
	require.NoError(t, err)
	mw, err := HTTPMiddleware(p)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/cards/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, path := range []string{"/cards/1", "/cards/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(),
		`agent_http_requests_total{method="GET",path="/cards/{id}",status_code="204"} 2`)

	_, err = HTTPMiddleware(p)
	require.Error(t, err, "registering twice must fail")
}
