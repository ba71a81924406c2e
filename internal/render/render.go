// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public blog. It
// supports full-page and HTMX partial rendering, detecting the request type
// via the HX-Request header, and can render to bytes for the page cache.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codewithbrain/internal/markdown"
	"codewithbrain/internal/slug"
)

//go:embed templates/public/*.html
var publicFS embed.FS

const templateDir = "templates/public"

// PageData holds all data passed to public templates.
type PageData struct {
	Title       string         // Page title for <title> tag
	Description string         // Meta description
	Data        map[string]any // Page-specific data
	Pagination  *Pagination    // nil on pages without paging
}

// Options configures template helpers.
type Options struct {
	// ImageURL maps a stored image key to a public URL. Nil hides images.
	ImageURL func(key string) string
	// SiteName is shown in the header and title.
	SiteName string
}

// Renderer handles template parsing and execution for public pages.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
	siteName  string
}

// New creates a Renderer by parsing all public templates from the embedded
// filesystem. Each page template is paired with the base layout.
func New(opts Options) (*Renderer, error) {
	if opts.SiteName == "" {
		opts.SiteName = "Code With Brain"
	}
	r := &Renderer{
		templates: make(map[string]*template.Template),
		siteName:  opts.SiteName,
		funcMap: template.FuncMap{
			"markdown": markdown.Render,
			"date": func(t *time.Time) string {
				if t == nil {
					return ""
				}
				return t.Format("January 2, 2006")
			},
			// imageURL returns "" when storage is not configured.
			"imageURL": func(key *string) string {
				if key == nil || *key == "" || opts.ImageURL == nil {
					return ""
				}
				return opts.ImageURL(*key)
			},
			"join":    strings.Join,
			"slugify": slug.Generate,
			"siteName": func() string {
				return opts.SiteName
			},
		},
	}

	entries, err := fs.ReadDir(publicFS, templateDir)
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(
			publicFS, templateDir+"/base.html", templateDir+"/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[tmplName] = tmpl
	}

	return r, nil
}

// Render executes the named page into a buffer. With partial set only the
// "content" block is produced.
func (rn *Renderer) Render(name string, data *PageData, partial bool) ([]byte, error) {
	tmpl, ok := rn.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}

	exec := "base.html"
	if partial {
		exec = "content"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, exec, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Page renders a full page or an HTMX partial, depending on the request
// headers. Nothing is written on a template error except a 500.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	body, err := rn.Render(name, data, isHTMX(r))
	if err != nil {
		slog.Error("render page", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	Write(w, body)
}

// Write sends already rendered HTML.
func Write(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}

// IsPartial reports whether r asks for the content fragment only.
func IsPartial(r *http.Request) bool {
	return isHTMX(r)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
