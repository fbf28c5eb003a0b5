package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitekicker/internal/folder"
	"git.home.luguber.info/inful/sitekicker/internal/frontmatter"
	"git.home.luguber.info/inful/sitekicker/internal/logfields"
	"git.home.luguber.info/inful/sitekicker/internal/options"
)

// DefaultOutputName is the file written into an entry's output directory
// unless the output_name option overrides it.
const DefaultOutputName = "index.html"

// EntryFile is a local file referenced by an anchor in the compiled HTML.
type EntryFile struct {
	Title  string
	Name   string // href as written
	Path   string // absolute source path
	Exists bool
}

// EntryImage is a local image referenced by an <img> tag.
type EntryImage struct {
	Src     string // src or data-src as written
	Path    string // absolute source path
	Alt     string
	Classes []string
	Width   int
	Height  int
	Exists  bool
}

// Entry is one content unit backed by an entry folder.
type Entry struct {
	Site *Site

	ID          string
	Title       string
	Date        time.Time
	Dir         string
	Path        string
	ModTime     time.Time
	UserOptions *options.Map
	Options     *options.Map

	RawContent    string
	CompileOutput string
	HTMLOutput    string

	OutputPath  string
	OutputName  string
	PermLink    string
	Link        string
	Fingerprint string

	InlinedFiles   []string
	LinkedFiles    []*EntryFile
	LinkedImages   []*EntryImage
	ExternalImages []string
	MetaTags       []string

	Warnings []error
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDate converts a front-matter date value into a time. Unparseable
// values yield the zero time.
func ParseDate(v any) time.Time {
	switch d := v.(type) {
	case time.Time:
		return d
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// NewEntry reads the main file of f and resolves the entry's identity,
// options and output locations.
func NewEntry(site *Site, f *folder.EntryFolder) (*Entry, error) {
	doc, err := frontmatter.ReadFile(f.MainFile)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", f.MainFile, err)
	}
	info, err := os.Stat(f.MainFile)
	if err != nil {
		return nil, fmt.Errorf("stat entry %s: %w", f.MainFile, err)
	}

	front := doc.Front
	id := options.Normalize(strings.TrimSpace(front.String("id")))
	if id == "" {
		return nil, fmt.Errorf("entry %s: front-matter has no id", f.MainFile)
	}
	date, _ := front.Get("date")

	e := &Entry{
		Site:        site,
		ID:          id,
		Title:       front.String("title"),
		Date:        ParseDate(date),
		Dir:         f.Path(),
		Path:        f.MainFile,
		ModTime:     info.ModTime(),
		UserOptions: front,
		Options:     options.MergeAll(f.CombinedOptions(), front),
		RawContent:  string(doc.Body),
		Fingerprint: mdfp.CalculateFingerprintFromParts(string(doc.RawFront), string(doc.Body)),
	}

	segments := append(e.Options.Strings(options.KeyPrefix), id)
	e.Link = "/" + strings.Join(segments, "/")
	e.PermLink = strings.TrimRight(site.Config.BaseURL, "/") + e.Link

	root := site.OutputPath()
	if override := e.Options.String("output_path"); override != "" {
		e.OutputPath = filepath.Join(root, filepath.FromSlash(override))
	} else {
		e.OutputPath = filepath.Join(append([]string{root}, segments...)...)
	}
	if rel, err := filepath.Rel(root, e.OutputPath); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("entry %s: %w: %s", id, ErrOutputEscapes, e.OutputPath)
	}

	e.OutputName = e.Options.String("output_name")
	if e.OutputName == "" {
		e.OutputName = DefaultOutputName
	}
	return e, nil
}

// Publishable reports whether the entry has both an id and a date.
func (e *Entry) Publishable() bool { return e.ID != "" && !e.Date.IsZero() }

// Equal reports whether both entries carry the same date.
func (e *Entry) Equal(o *Entry) bool { return e.Date.Equal(o.Date) }

// Less reports whether e is dated before o.
func (e *Entry) Less(o *Entry) bool { return e.Date.Before(o.Date) }

// Greater reports whether e is dated after o.
func (e *Entry) Greater(o *Entry) bool { return e.Date.After(o.Date) }

// Degraded reports whether any reference of the entry could not be resolved.
func (e *Entry) Degraded() bool { return len(e.Warnings) > 0 }

// Warn records a non-fatal problem with the entry.
func (e *Entry) Warn(err error) {
	e.Warnings = append(e.Warnings, err)
	slog.Warn("Entry degraded", logfields.Entry(e.ID), logfields.Error(err))
}

// OutputFile returns the absolute path of the rendered HTML file.
func (e *Entry) OutputFile() string { return filepath.Join(e.OutputPath, e.OutputName) }

// Summary is the compact view of an entry used in site listings.
func (e *Entry) Summary() map[string]any {
	return map[string]any{
		"id":        e.ID,
		"title":     e.Title,
		"date":      e.Date,
		"link":      e.Link,
		"perm_link": e.PermLink,
		"tags":      e.Options.Strings(options.KeyTags),
		"options":   e.Options.ToMap(),
	}
}

func (e *Entry) String() string {
	return fmt.Sprintf("Entry(%s): [%s], %d images, %d external images, %d files, %d inlined files",
		e.ID, e.Path, len(e.LinkedImages), len(e.ExternalImages), len(e.LinkedFiles), len(e.InlinedFiles))
}

// Build runs every entry stage in order. A handler error that is not a
// warning-kind *StageError fails the entry.
func (e *Entry) Build(ctx context.Context, hooks *EntryHooks) error {
	for _, stage := range hooks.Stages() {
		for _, h := range hooks.Handlers(stage) {
			if err := ctx.Err(); err != nil {
				return NewCanceledStageError(stage, h.Name, err)
			}
			err := h.Fn(ctx, e)
			if err == nil {
				continue
			}
			var se *StageError
			if errors.As(err, &se) {
				if se.Kind == StageErrorWarning {
					e.Warn(se)
					continue
				}
				return se
			}
			return NewFatalStageError(stage, h.Name, fmt.Errorf("entry %s: %w", e.ID, err))
		}
	}
	return nil
}

// SortByDateDesc returns the publishable entries ordered newest first.
// Entries without a date never take part in the comparison.
func SortByDateDesc(entries []*Entry) []*Entry {
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.Publishable() {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Greater(out[j]) })
	return out
}
