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
	"bytes"
	"strings"
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-mifareprog/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUI(t *testing.T) (*UI, *Document) {
	t.Helper()
	doc := NewDocument("MIFARE Programmer")
	ui := New(doc)
	t.Cleanup(ui.Close)
	return ui, doc
}

func TestShowLoading(t *testing.T) {
	t.Parallel()
	ui, doc := newTestUI(t)
	status := doc.Register("status")

	require.NoError(t, ui.ShowLoading(status, "Scanning for cards..."))
	html := string(status.HTML())
	assert.Contains(t, html, "spinner-border")
	assert.Contains(t, html, "Scanning for cards...")

	// by id, default message, replaces previous content
	require.NoError(t, ui.ShowLoading(ElementID("status"), ""))
	html = string(status.HTML())
	assert.Contains(t, html, "<p class=\"mt-2\">Loading...</p>")
	assert.NotContains(t, html, "Scanning")
	assert.Equal(t, 1, strings.Count(html, "spinner-border"))
}

func TestHideLoading(t *testing.T) {
	t.Parallel()
	ui, doc := newTestUI(t)
	status := doc.Register("status")

	require.NoError(t, ui.ShowLoading(status, "x"))
	require.NoError(t, ui.HideLoading(ElementID("status")))
	assert.True(t, status.Empty())
	assert.Empty(t, status.HTML())
}

func TestUnknownTarget(t *testing.T) {
	t.Parallel()
	ui, _ := newTestUI(t)

	require.ErrorIs(t, ui.ShowLoading(ElementID("missing"), ""), ErrElementNotFound)
	require.ErrorIs(t, ui.HideLoading(ElementID("missing")), ErrElementNotFound)
	require.ErrorIs(t, ui.ShowError("x", ElementID("missing")), ErrElementNotFound)

	other := NewDocument("other").Register("status")
	require.ErrorIs(t, ui.ShowSuccess("x", other), ErrElementNotFound)
	require.ErrorIs(t, ui.ShowLoading(nil, ""), ErrElementNotFound)
}

func TestShowError_MainRegion(t *testing.T) {
	t.Parallel()
	ui, doc := newTestUI(t)

	require.NoError(t, ui.ShowSuccess("Card programmed", nil))
	require.NoError(t, ui.ShowError("No cards found", nil))

	html := string(doc.Main().HTML())
	errIdx := strings.Index(html, "alert-danger")
	okIdx := strings.Index(html, "alert-success")
	require.NotEqual(t, -1, errIdx)
	require.NotEqual(t, -1, okIdx)
	assert.Less(t, errIdx, okIdx, "newest banner comes first")
	assert.Contains(t, html, "alert-dismissible")
	assert.Contains(t, html, "btn-close")
}

func TestShowError_MissingElementFallsBackToMain(t *testing.T) {
	t.Parallel()
	ui, doc := newTestUI(t)

	require.NoError(t, ui.ShowError("boom", doc.Element("missing")))
	html := string(doc.Main().HTML())
	assert.Contains(t, html, "alert-danger")
	assert.Contains(t, html, "boom")
}

func TestShowSuccess_Container(t *testing.T) {
	t.Parallel()
	ui, doc := newTestUI(t)
	result := doc.Register("result")

	require.NoError(t, ui.ShowLoading(result, "Programming..."))
	require.NoError(t, ui.ShowSuccess("Done", ElementID("result")))

	html := string(result.HTML())
	assert.Contains(t, html, "alert-success")
	assert.NotContains(t, html, "spinner")
	assert.True(t, doc.Main().Empty())
}

func TestMessagesAreEscaped(t *testing.T) {
	t.Parallel()
	ui, doc := newTestUI(t)

	require.NoError(t, ui.ShowError(`<script>alert("x")</script>`, nil))
	html := string(doc.Main().HTML())
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestDismissAlerts(t *testing.T) {
	t.Parallel()
	ui, doc := newTestUI(t)
	status := doc.Register("status")

	require.NoError(t, ui.ShowError("a", nil))
	require.NoError(t, ui.ShowSuccess("b", status))
	require.NoError(t, ui.ShowText(doc.Main(), "kept"))
	require.NoError(t, ui.ShowError("c", nil))

	assert.Equal(t, 2, ui.DismissAlerts())
	assert.Contains(t, string(doc.Main().HTML()), "kept")
	assert.True(t, status.Empty())
	assert.Zero(t, ui.DismissAlerts())
}

func TestAutoDismiss(t *testing.T) {
	t.Parallel()
	ui, doc := newTestUI(t)

	require.NoError(t, ui.ShowError("transient", nil))
	ui.AutoDismiss(10 * time.Millisecond)

	assert.Eventually(t, doc.Main().Empty, time.Second, 5*time.Millisecond)
}

func TestMarkNFCSupport(t *testing.T) {
	t.Parallel()

	ui, doc := newTestUI(t)
	assert.True(t, ui.MarkNFCSupport(testutil.NewVirtualPlatform(true)))
	assert.True(t, doc.HasClass(ClassNFCSupported))
	assert.False(t, doc.HasClass(ClassNFCNotSupported))

	ui2, doc2 := newTestUI(t)
	assert.False(t, ui2.MarkNFCSupport(testutil.NewVirtualPlatform(false)))
	assert.True(t, doc2.HasClass(ClassNFCNotSupported))

	ui3, doc3 := newTestUI(t)
	assert.False(t, ui3.MarkNFCSupport(nil))
	assert.Equal(t, []string{ClassNFCNotSupported}, doc3.Classes())

	platform := testutil.NewVirtualPlatform(false)
	assert.False(t, ui3.MarkNFCSupport(platform))
	platform.SetSupported(true)
	assert.True(t, ui3.MarkNFCSupport(platform))
	assert.Equal(t, []string{ClassNFCSupported}, doc3.Classes())
}

func TestDocumentRender(t *testing.T) {
	t.Parallel()
	ui, doc := newTestUI(t)
	doc.Register("status")
	ui.MarkNFCSupport(testutil.NewVirtualPlatform(true))
	require.NoError(t, ui.ShowLoading(ElementID("status"), "Waiting for card"))
	require.NoError(t, ui.ShowSuccess("Ready", nil))

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf))
	page := buf.String()
	assert.Contains(t, page, "<title>MIFARE Programmer</title>")
	assert.Contains(t, page, `<body class="nfc-supported">`)
	assert.Contains(t, page, `<main class="container"><div class="alert alert-success`)
	assert.Contains(t, page, `<div id="status">`)
	assert.Contains(t, page, "Waiting for card")
}
