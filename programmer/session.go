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
	"context"
	"sync"
	"sync/atomic"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/google/uuid"
)

// Session holds the card data of one programming session
type Session struct {
	card       *mifareprog.CardData
	id         uuid.UUID
	mu         sync.RWMutex
	inProgress atomic.Bool
}

// NewSession creates an empty session with a random identifier
func NewSession() *Session {
	return &Session{id: uuid.New()}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id.String()
}

// Load replaces the session card data. It fails while a program is running.
func (s *Session) Load(card *mifareprog.CardData) error {
	if card == nil || card.SectorData == nil {
		return mifareprog.ErrInvalidCardData
	}
	if s.inProgress.Load() {
		return mifareprog.ErrProgrammingInProgress
	}
	s.mu.Lock()
	s.card = card
	s.mu.Unlock()
	return nil
}

// Card returns the loaded card data, or nil
func (s *Session) Card() *mifareprog.CardData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.card
}

// InProgress reports whether Program is running
func (s *Session) InProgress() bool {
	return s.inProgress.Load()
}

// Program writes the loaded card data with p. Only one program may run per
// session at a time.
func (s *Session) Program(ctx context.Context, p *Programmer, progress ProgressFunc) (bool, error) {
	if !s.inProgress.CompareAndSwap(false, true) {
		return false, mifareprog.ErrProgrammingInProgress
	}
	defer s.inProgress.Store(false)

	card := s.Card()
	if card == nil {
		return false, mifareprog.ErrInvalidCardData
	}
	p.log.WithField("session", s.ID()).Debug("session programming started")
	return p.ProgramCard(ctx, card, progress)
}
