package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

const (
	layoutFile      = "layout.html"
	adminDir        = "admin"
	baseTemplate    = "base"
	adminBaseTmpl   = "admin_base"
	adminNamePrefix = "admin/"
)

// Renderer manages template parsing and rendering with isolated template sets.
// Each page is parsed into its own clone of a layout so that every page can
// define the same "content" block.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewRenderer parses layout.html and every page beside it, then
// admin/layout.html and every admin page, from fsys.
func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Renderer{
		templates: make(map[string]*template.Template),
		logger:    logger,
	}

	if err := r.parseDir(fsys, ".", baseTemplate, ""); err != nil {
		return nil, err
	}
	if err := r.parseDir(fsys, adminDir, adminBaseTmpl, adminNamePrefix); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Renderer) parseDir(fsys fs.FS, dir, base, prefix string) error {
	layout := path.Join(dir, layoutFile)
	baseTmpl, err := template.New(base).Funcs(TemplateFuncs()).ParseFS(fsys, layout)
	if err != nil {
		return fmt.Errorf("failed to parse layout %s: %w", layout, err)
	}

	pages, err := fs.Glob(fsys, path.Join(dir, "*.html"))
	if err != nil {
		return fmt.Errorf("failed to glob templates in %s: %w", dir, err)
	}

	for _, page := range pages {
		if path.Base(page) == layoutFile {
			continue
		}

		pageTmpl, err := baseTmpl.Clone()
		if err != nil {
			return fmt.Errorf("failed to clone template for %s: %w", page, err)
		}
		if _, err := pageTmpl.ParseFS(fsys, page); err != nil {
			return fmt.Errorf("failed to parse page %s: %w", page, err)
		}

		name := strings.TrimSuffix(path.Base(page), path.Ext(page))
		r.templates[prefix+name] = pageTmpl
	}

	return nil
}

// Has reports whether a page named name was parsed.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render executes the page's layout into w.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, layoutFor(name), data)
}

// RenderHTTP renders a page with status 200.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, name string, data any) {
	r.RenderStatus(w, name, http.StatusOK, data)
}

// RenderStatus renders a page with the given status. The page is rendered
// into a buffer first so a template error never leaves a half-written
// response.
func (r *Renderer) RenderStatus(w http.ResponseWriter, name string, status int, data any) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.Error("render error", "template", name, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func layoutFor(name string) string {
	if strings.HasPrefix(name, adminNamePrefix) {
		return adminBaseTmpl
	}
	return baseTemplate
}
