// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

// templates is parsed once at startup; the embedded FS is immutable.
var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// render writes a template to the response. The template is rendered to a
// buffer first so a failure produces a clean 500 instead of a torn page.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template render failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w) //nolint:errcheck // client may disconnect mid-write
}
