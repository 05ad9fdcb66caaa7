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

// Package feedback renders loading, error and success states into a page
// document that the agent serves.
package feedback

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"slices"
	"strings"
	"sync"
)

// MainID is the id of the designated main region of every document
const MainID ElementID = "main"

// ErrElementNotFound is returned when a Target names an unknown element
var ErrElementNotFound = errors.New("element not found")

// ElementID identifies an element by lookup key
type ElementID string

// Target selects an element either directly (*Element) or by ElementID
type Target interface {
	resolve(d *Document) (*Element, error)
}

func (id ElementID) resolve(d *Document) (*Element, error) {
	if el := d.Element(id); el != nil {
		return el, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrElementNotFound, id)
}

type nodeKind int

const (
	nodeSpinner nodeKind = iota
	nodeAlert
	nodeText
)

// Alert styles
const (
	StyleDanger  = "danger"
	StyleSuccess = "success"
	StyleInfo    = "info"
)

type node struct {
	Message     string
	Style       string
	Icon        string
	kind        nodeKind
	Dismissible bool
}

// Element is a region of the document whose content is replaced or
// extended by UI operations
type Element struct {
	doc   *Document
	id    ElementID
	nodes []node
}

// ID returns the element id
func (e *Element) ID() ElementID {
	return e.id
}

func (e *Element) resolve(d *Document) (*Element, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil element", ErrElementNotFound)
	}
	if e.doc != d {
		return nil, fmt.Errorf("%w: %s belongs to another document", ErrElementNotFound, e.id)
	}
	return e, nil
}

// Empty reports whether the element has no content
func (e *Element) Empty() bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return len(e.nodes) == 0
}

// HTML renders the element content
func (e *Element) HTML() template.HTML {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.renderLocked()
}

func (e *Element) renderLocked() template.HTML {
	var b strings.Builder
	for _, n := range e.nodes {
		if err := nodeTemplates.ExecuteTemplate(&b, templateFor(n.kind), n); err != nil {
			// Templates are static; a failure here is a programming error.
			panic(err)
		}
	}
	//nolint:gosec // content produced by html/template
	return template.HTML(b.String())
}

// Document is a page with a main region, named elements and body classes.
// It is safe for concurrent use.
type Document struct {
	elements map[ElementID]*Element
	title    string
	order    []ElementID
	classes  []string
	mu       sync.RWMutex
}

// NewDocument creates a document containing only the main region
func NewDocument(title string) *Document {
	d := &Document{title: title, elements: make(map[ElementID]*Element)}
	d.Register(MainID)
	return d
}

// Main returns the main region
func (d *Document) Main() *Element {
	return d.Element(MainID)
}

// Register adds an element, or returns the existing one with that id
func (d *Document) Register(id ElementID) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.elements[id]; ok {
		return el
	}
	el := &Element{doc: d, id: id}
	d.elements[id] = el
	d.order = append(d.order, id)
	return el
}

// Element returns the element with id, or nil
func (d *Document) Element(id ElementID) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.elements[id]
}

// AddClass adds a body class
func (d *Document) AddClass(class string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !slices.Contains(d.classes, class) {
		d.classes = append(d.classes, class)
	}
}

// RemoveClass removes a body class and reports whether it was present
func (d *Document) RemoveClass(class string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.Index(d.classes, class)
	if i < 0 {
		return false
	}
	d.classes = slices.Delete(d.classes, i, i+1)
	return true
}

// HasClass reports whether the body carries class
func (d *Document) HasClass(class string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Contains(d.classes, class)
}

// Classes returns the body classes in insertion order
func (d *Document) Classes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.classes)
}

type pageElement struct {
	ID      ElementID
	Content template.HTML
}

// Render writes the whole page
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	data := struct {
		Title    string
		Class    string
		Main     template.HTML
		Elements []pageElement
	}{
		Title: d.title,
		Class: strings.Join(d.classes, " "),
	}
	for _, id := range d.order {
		content := d.elements[id].renderLocked()
		if id == MainID {
			data.Main = content
			continue
		}
		data.Elements = append(data.Elements, pageElement{ID: id, Content: content})
	}
	d.mu.RUnlock()

	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func (d *Document) resolve(t Target) (*Element, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil target", ErrElementNotFound)
	}
	return t.resolve(d)
}

func (d *Document) replace(el *Element, nodes ...node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el.nodes = nodes
}

func (d *Document) prepend(el *Element, n node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el.nodes = append([]node{n}, el.nodes...)
}

// removeDismissible drops dismissible alerts everywhere and returns how many
// were removed
func (d *Document) removeDismissible() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	removed := 0
	for _, el := range d.elements {
		kept := el.nodes[:0]
		for _, n := range el.nodes {
			if n.kind == nodeAlert && n.Dismissible {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		el.nodes = kept
	}
	return removed
}
