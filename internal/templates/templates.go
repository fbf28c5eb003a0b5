// Package templates loads the site layouts and renders entries through them.
package templates

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/sitekicker/internal/logfields"
)

// Extension is the file extension of layout templates.
const Extension = ".html"

// DefaultLayout is used when an entry names no layout. It is the only layout
// allowed to be missing.
const DefaultLayout = "default"

// ErrLayoutNotFound indicates an entry asked for a layout that does not exist.
var ErrLayoutNotFound = errors.New("layout not found")

const passthrough = `{{ .content }}`

// Registry holds every layout of the template directory in one template set,
// so layouts can use blocks and partials defined in sibling files.
type Registry struct {
	set      *template.Template
	fallback *template.Template
}

// Load parses <dir>/*.html. A missing directory yields an empty registry.
func Load(dir string) (*Registry, error) {
	r := &Registry{
		fallback: template.Must(template.New(DefaultLayout + Extension).Funcs(Funcs()).Parse(passthrough)),
	}
	files, err := filepath.Glob(filepath.Join(dir, "*"+Extension))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if len(files) == 0 {
		if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
			slog.Debug("Template directory missing, using passthrough layout", logfields.Path(dir))
		}
		return r, nil
	}
	sort.Strings(files)
	set, err := template.New("").Funcs(Funcs()).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.set = set
	slog.Debug("Loaded templates", logfields.Path(dir), logfields.Count(len(files)))
	return r, nil
}

// Render executes layout with data. An empty layout selects the default.
func (r *Registry) Render(layout string, data map[string]any) (string, error) {
	if layout == "" {
		layout = DefaultLayout
	}
	tpl := r.lookup(layout)
	if tpl == nil {
		if layout != DefaultLayout {
			return "", fmt.Errorf("%w: %s%s", ErrLayoutNotFound, layout, Extension)
		}
		tpl = r.fallback
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render layout %s: %w", layout, err)
	}
	return buf.String(), nil
}

func (r *Registry) lookup(layout string) *template.Template {
	if r.set == nil {
		return nil
	}
	return r.set.Lookup(layout + Extension)
}
