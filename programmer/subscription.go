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

package programmer

import (
	"sync"

	"github.com/ZaparooProject/go-mifareprog"
)

// Handlers are the callbacks of one subscription. Either may be nil.
type Handlers struct {
	OnCardDetected func(mifareprog.Reading)
	OnError        func(error)
}

// Subscription is a registered set of Handlers
type Subscription struct {
	registry *registry
	id       uint64
	once     sync.Once
}

// Cancel stops delivery to the subscription. It is safe to call repeatedly.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.registry.remove(s.id)
	})
}

type registry struct {
	handlers map[uint64]Handlers
	order    []uint64
	next     uint64
	mu       sync.RWMutex
}

func newRegistry() *registry {
	return &registry{handlers: make(map[uint64]Handlers)}
}

func (r *registry) add(h Handlers) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.handlers[r.next] = h
	r.order = append(r.order, r.next)
	return &Subscription{registry: r, id: r.next}
}

func (r *registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// snapshot returns handlers in subscription order so they can be called
// without holding the lock
func (r *registry) snapshot() []Handlers {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handlers, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.handlers[id])
	}
	return out
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
