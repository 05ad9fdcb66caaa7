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

// Package scan talks to the card programming backend: it asks the backend's
// PC/SC readers for cards and fetches program data for one-time tokens.
package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Backend paths
const (
	ScanPath        = "/api/scan_card"
	ProgramDataPath = "/api/program_data/"
)

// DefaultBaseURL is where the backend listens in a default installation
const DefaultBaseURL = "http://localhost:5000"

const maxBodySize = 1 << 20

// Client calls the backend endpoints
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logrus.Entry
	baseURL    string
}

// Option is a functional option for configuring a Client
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit throttles requests to perSecond with the given burst.
// A non-positive rate disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithLogger sets the log entry used by the client
func WithLogger(entry *logrus.Entry) Option {
	return func(c *Client) {
		if entry != nil {
			c.log = entry
		}
	}
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        mifareprog.Component("scan"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

type scanResponse struct {
	Error   string                  `json:"error,omitempty"`
	Cards   []mifareprog.CardRecord `json:"cards"`
	Success bool                    `json:"success"`
}

// ScanForCards asks the backend for the cards on its readers. It makes a
// single attempt. A response without success or without cards yields a
// ScanError wrapping mifareprog.ErrNoCardsFound; transport and decoding
// failures yield a ScanError wrapping the cause.
func (c *Client) ScanForCards(ctx context.Context) ([]mifareprog.CardRecord, error) {
	endpoint := c.baseURL + ScanPath
	log := c.log.WithField("url", endpoint)

	var body scanResponse
	if _, err := c.getJSON(ctx, endpoint, &body); err != nil {
		log.WithError(err).Warn("scan request failed")
		return nil, mifareprog.NewScanError(mifareprog.OpScan, endpoint, err)
	}

	if !body.Success || len(body.Cards) == 0 {
		log.WithField("backend_error", body.Error).Debug("no cards reported")
		return nil, mifareprog.NewScanError(mifareprog.OpScan, endpoint, mifareprog.ErrNoCardsFound)
	}

	log.WithField("cards", len(body.Cards)).Debug("scan complete")
	return body.Cards, nil
}

// FetchProgram redeems a one-time program token. The returned sector data
// has been validated.
func (c *Client) FetchProgram(ctx context.Context, token string) (*mifareprog.CardData, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty token", mifareprog.ErrInvalidFormat)
	}
	endpoint := c.baseURL + ProgramDataPath + url.PathEscape(token)

	var card mifareprog.CardData
	status, err := c.getJSON(ctx, endpoint, &card)
	switch {
	case status == http.StatusForbidden || status == http.StatusNotFound:
		return nil, mifareprog.NewScanError(mifareprog.OpFetch, endpoint, mifareprog.ErrProgramUnavailable)
	case err != nil:
		return nil, mifareprog.NewScanError(mifareprog.OpFetch, endpoint, err)
	case status != http.StatusOK:
		return nil, mifareprog.NewScanError(mifareprog.OpFetch, endpoint, fmt.Errorf("unexpected status %d", status))
	}

	if card.SectorData == nil {
		return nil, fmt.Errorf("%w: program %q has no sector data", mifareprog.ErrInvalidCardData, card.ProgramName)
	}
	if err := card.Validate().Err(); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"program": card.ProgramName,
		"sectors": card.SectorData.Len(),
	}).Info("program data fetched")
	return &card, nil
}

// getJSON performs a GET and decodes the body into out whatever the status
// code, since the backend reports failures in the body. Error statuses with
// undecodable bodies return the status and a decode error.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err //nolint:wrapcheck // url.Error already names the request
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WithError(closeErr).Debug("closing response body")
		}
	}()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return resp.StatusCode, fmt.Errorf("invalid response (status %d): %w", resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}
