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

package feedback

import (
	"sync"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/sirupsen/logrus"
)

// DefaultLoadingMessage is shown when ShowLoading gets no message
const DefaultLoadingMessage = "Loading..."

// DefaultAutoDismiss is the delay after which alerts are dismissed
const DefaultAutoDismiss = 5 * time.Second

// NFC support classes added to the document body
const (
	ClassNFCSupported    = "nfc-supported"
	ClassNFCNotSupported = "nfc-not-supported"
)

// UI applies feedback operations to a Document
type UI struct {
	doc   *Document
	log   *logrus.Entry
	timer *time.Timer
	mu    sync.Mutex
}

// Option is a functional option for configuring a UI
type Option func(*UI)

// WithLogger sets the log entry used by the UI
func WithLogger(entry *logrus.Entry) Option {
	return func(u *UI) {
		if entry != nil {
			u.log = entry
		}
	}
}

// New creates a UI for doc
func New(doc *Document, opts ...Option) *UI {
	u := &UI{doc: doc, log: mifareprog.Component("feedback")}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Document returns the document the UI renders into
func (u *UI) Document() *Document {
	return u.doc
}

// ShowLoading replaces the content of target with a spinner and message
func (u *UI) ShowLoading(target Target, message string) error {
	el, err := u.doc.resolve(target)
	if err != nil {
		return err
	}
	if message == "" {
		message = DefaultLoadingMessage
	}
	u.doc.replace(el, node{kind: nodeSpinner, Message: message})
	return nil
}

// HideLoading clears the content of target
func (u *UI) HideLoading(target Target) error {
	el, err := u.doc.resolve(target)
	if err != nil {
		return err
	}
	u.doc.replace(el)
	return nil
}

// ShowError renders a dismissible error banner. With a container the
// banner replaces its content; with nil (or a nil *Element) it is inserted
// at the top of the main region.
func (u *UI) ShowError(message string, container Target) error {
	return u.showAlert(node{
		kind:        nodeAlert,
		Message:     message,
		Style:       StyleDanger,
		Icon:        "fa-exclamation-triangle",
		Dismissible: true,
	}, container)
}

// ShowSuccess renders a dismissible success banner, placed like ShowError
func (u *UI) ShowSuccess(message string, container Target) error {
	return u.showAlert(node{
		kind:        nodeAlert,
		Message:     message,
		Style:       StyleSuccess,
		Icon:        "fa-check-circle",
		Dismissible: true,
	}, container)
}

func (u *UI) showAlert(n node, container Target) error {
	if el, ok := container.(*Element); container == nil || (ok && el == nil) {
		u.doc.prepend(u.doc.Main(), n)
		return nil
	}
	el, err := u.doc.resolve(container)
	if err != nil {
		return err
	}
	u.doc.replace(el, n)
	return nil
}

// ShowText replaces the content of target with a plain paragraph
func (u *UI) ShowText(target Target, message string) error {
	el, err := u.doc.resolve(target)
	if err != nil {
		return err
	}
	u.doc.replace(el, node{kind: nodeText, Message: message})
	return nil
}

// DismissAlerts removes every dismissible banner from the document
func (u *UI) DismissAlerts() int {
	n := u.doc.removeDismissible()
	if n > 0 {
		u.log.WithField("alerts", n).Debug("alerts dismissed")
	}
	return n
}

// AutoDismiss schedules DismissAlerts after the given delay, replacing any
// earlier schedule. A non-positive delay uses DefaultAutoDismiss.
func (u *UI) AutoDismiss(after time.Duration) {
	if after <= 0 {
		after = DefaultAutoDismiss
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.timer != nil {
		u.timer.Stop()
	}
	u.timer = time.AfterFunc(after, func() { u.DismissAlerts() })
}

// Close cancels a pending AutoDismiss
func (u *UI) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
}

// MarkNFCSupport tags the document with the platform's NFC capability,
// replacing an earlier tag. A nil platform counts as unsupported.
func (u *UI) MarkNFCSupport(platform mifareprog.Platform) bool {
	supported := platform != nil && platform.Supported()
	add, remove := ClassNFCNotSupported, ClassNFCSupported
	if supported {
		add, remove = ClassNFCSupported, ClassNFCNotSupported
	}
	u.doc.RemoveClass(remove)
	if !u.doc.HasClass(add) {
		u.doc.AddClass(add)
		u.log.WithField("supported", supported).Info("NFC support changed")
	}
	return supported
}
