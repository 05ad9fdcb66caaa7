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

package scan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
	testutil "github.com/ZaparooProject/go-mifareprog/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, status int, body []byte) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	return c, &hits
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c, err = NewClient("http://backend:5000/")
	require.NoError(t, err)
	assert.Equal(t, "http://backend:5000", c.BaseURL())

	_, err = NewClient("not a url")
	require.Error(t, err)
}

func TestScanForCards_Success(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		_, _ = w.Write(testutil.BuildScanResponse(
			testutil.ScanCard{Reader: "ACS ACR122U 00", ATR: testutil.Classic1KATR, UID: "04A22BC1"},
			testutil.ScanCard{Reader: "ACS ACR122U 01", ATR: testutil.Classic4KATR},
		))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	cards, err := c.ScanForCards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanPath, <-paths)
	require.Len(t, cards, 2)
	assert.Equal(t, "ACS ACR122U 00", cards[0].Reader)
	assert.Equal(t, mifareprog.CardTypeClassic1K, cards[0].Info().Type)
	assert.Equal(t, mifareprog.CardTypeClassic4K, cards[1].Info().Type)
}

func TestScanForCards_NoCards(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   []byte
		status int
	}{
		{name: "success without cards", status: http.StatusOK, body: testutil.BuildScanResponse()},
		{name: "backend reports failure", status: http.StatusOK, body: testutil.BuildNoCardsResponse()},
		{name: "failure with error status", status: http.StatusInternalServerError, body: testutil.BuildNoCardsResponse()},
		{name: "cards but no success flag", status: http.StatusOK, body: []byte(`{"cards":[{"reader":"r","atr":"3B"}]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, hits := newBackend(t, tt.status, tt.body)

			cards, err := c.ScanForCards(context.Background())
			require.Error(t, err)
			assert.Nil(t, cards)
			assert.Equal(t, "no cards found", err.Error())
			assert.ErrorIs(t, err, mifareprog.ErrNoCardsFound)
			assert.ErrorIs(t, err, mifareprog.ErrScanFailed)
			assert.Equal(t, int32(1), hits.Load(), "no retry")
		})
	}
}

func TestScanForCards_MalformedBody(t *testing.T) {
	t.Parallel()
	c, _ := newBackend(t, http.StatusOK, []byte(`<html>oops</html>`))

	_, err := c.ScanForCards(context.Background())
	require.ErrorIs(t, err, mifareprog.ErrScanFailed)
	assert.NotErrorIs(t, err, mifareprog.ErrNoCardsFound)
	assert.Contains(t, err.Error(), "failed to scan for cards: ")
	assert.True(t, mifareprog.IsRetryable(err))
}

func TestScanForCards_TransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	require.NoError(t, err)

	_, err = c.ScanForCards(context.Background())
	require.ErrorIs(t, err, mifareprog.ErrScanFailed)
	assert.Contains(t, err.Error(), "failed to scan for cards: ")

	var scanErr *mifareprog.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, mifareprog.OpScan, scanErr.Op)
	assert.Equal(t, url+ScanPath, scanErr.URL)
}

func TestScanForCards_RateLimited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(testutil.BuildScanResponse(testutil.ScanCard{Reader: "r", ATR: testutil.Classic1KATR}))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithRateLimit(0.001, 1))
	require.NoError(t, err)

	_, err = c.ScanForCards(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ScanForCards(ctx)
	require.ErrorIs(t, err, mifareprog.ErrScanFailed)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestFetchProgram(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		_, _ = w.Write(testutil.BuildProgramResponse("Lobby door", testutil.BuildSectorData(2)))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	card, err := c.FetchProgram(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, ProgramDataPath+"abc123", <-paths)
	assert.Equal(t, "Lobby door", card.ProgramName)
	assert.Equal(t, []string{"1", "2"}, card.SectorData.IDs())
}

func TestFetchProgram_ExpiredToken(t *testing.T) {
	t.Parallel()
	c, _ := newBackend(t, http.StatusForbidden, testutil.BuildTokenErrorResponse())

	_, err := c.FetchProgram(context.Background(), "used")
	require.ErrorIs(t, err, mifareprog.ErrProgramUnavailable)
	assert.False(t, mifareprog.IsRetryable(err))
}

func TestFetchProgram_InvalidSectorData(t *testing.T) {
	t.Parallel()
	c, _ := newBackend(t, http.StatusOK, testutil.BuildProgramResponse("bad", map[string]any{
		"1": map[string]any{"blocks": []string{"00"}},
	}))

	_, err := c.FetchProgram(context.Background(), "tok")
	require.ErrorIs(t, err, mifareprog.ErrInvalidFormat)

	var problems mifareprog.ValidationErrors
	require.ErrorAs(t, err, &problems)
	assert.Equal(t, mifareprog.ValidationErrors{
		"Sector 1: Must have exactly 4 blocks",
		"Sector 1, Block 0: Invalid hex data (must be 32 hex characters)",
	}, problems)
}

func TestFetchProgram_MissingSectorData(t *testing.T) {
	t.Parallel()
	c, _ := newBackend(t, http.StatusOK, []byte(`{"program_name":"empty"}`))

	_, err := c.FetchProgram(context.Background(), "tok")
	require.ErrorIs(t, err, mifareprog.ErrInvalidCardData)
}

func TestFetchProgram_EmptyToken(t *testing.T) {
	t.Parallel()
	c, hits := newBackend(t, http.StatusOK, nil)

	_, err := c.FetchProgram(context.Background(), "  ")
	require.ErrorIs(t, err, mifareprog.ErrInvalidFormat)
	assert.Zero(t, hits.Load())
}
