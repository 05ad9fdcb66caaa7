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

import "html/template"

var nodeTemplates = template.Must(template.New("nodes").Parse(`
{{- define "spinner" -}}
<div class="text-center"><div class="spinner-border text-primary" role="status"><span class="visually-hidden">Loading...</span></div><p class="mt-2">{{.Message}}</p></div>
{{- end -}}
{{- define "alert" -}}
<div class="alert alert-{{.Style}}{{if .Dismissible}} alert-dismissible fade show{{end}}" role="alert"><i class="fas {{.Icon}} me-2"></i>{{.Message}}{{if .Dismissible}}<button type="button" class="btn-close" data-bs-dismiss="alert"></button>{{end}}</div>
{{- end -}}
{{- define "text" -}}
<p>{{.Message}}</p>
{{- end -}}
`))

func templateFor(kind nodeKind) string {
	switch kind {
	case nodeSpinner:
		return "spinner"
	case nodeAlert:
		return "alert"
	case nodeText:
		return "text"
	default:
		return "text"
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body{{with .Class}} class="{{.}}"{{end}}>
<main class="container">{{.Main}}</main>
{{range .Elements}}<div id="{{.ID}}">{{.Content}}</div>
{{end}}</body>
</html>
`))
