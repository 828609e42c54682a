package webserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"sync"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// EmbeddedTemplates returns the templates compiled into the binary
func EmbeddedTemplates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer executes the page templates. Reload swaps in a freshly parsed set
// so templates can be edited while the server runs.
type Renderer struct {
	source fs.FS
	mu     sync.RWMutex
	tmpl   *template.Template
}

// NewRenderer parses every *.html file in source
func NewRenderer(source fs.FS) (*Renderer, error) {
	r := &Renderer{source: source}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses the templates. On error the previous set stays active.
func (r *Renderer) Reload() error {
	tmpl, err := parseTemplates(r.source)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.tmpl = tmpl
	r.mu.Unlock()
	return nil
}

// Render executes the named template into w. Output is buffered so a failing
// template never leaves a half written response.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	r.mu.RLock()
	tmpl := r.tmpl
	r.mu.RUnlock()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Names lists the defined template names
func (r *Renderer) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tmpl.Templates()))
	for _, t := range r.tmpl.Templates() {
		names = append(names, t.Name())
	}
	return names
}

func parseTemplates(source fs.FS) (*template.Template, error) {
	tmpl, err := template.New("").ParseFS(source, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}
