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

// Package metrics exports programmer activity and agent HTTP traffic in
// Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "mifareprog"

// Provider owns a private registry so tests and multiple agents in one
// process do not collide.
type Provider struct {
	registry  *prometheus.Registry
	namespace string
}

// NewProvider creates a registry with Go runtime and process collectors.
// An empty namespace falls back to DefaultNamespace.
func NewProvider(namespace string) (*Provider, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err //nolint:wrapcheck // registration errors are descriptive
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err //nolint:wrapcheck // registration errors are descriptive
	}
	return &Provider{registry: registry, namespace: namespace}, nil
}

// Namespace returns the metric name prefix
func (p *Provider) Namespace() string {
	return p.namespace
}

// Registry returns the underlying registry
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// Register adds a collector to the registry
func (p *Provider) Register(c prometheus.Collector) error {
	return p.registry.Register(c) //nolint:wrapcheck // registration errors are descriptive
}

// Handler serves the registry in Prometheus exposition format
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
