package models

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitekicker/internal/config"
	"git.home.luguber.info/inful/sitekicker/internal/folder"
	"git.home.luguber.info/inful/sitekicker/internal/git"
	"git.home.luguber.info/inful/sitekicker/internal/incremental"
	"git.home.luguber.info/inful/sitekicker/internal/metrics"
	"git.home.luguber.info/inful/sitekicker/internal/workspace"
)

// Compiler turns Markdown source into HTML.
type Compiler interface {
	Compile(ctx context.Context, src string) (string, error)
}

// Renderer renders a named layout with template data.
type Renderer interface {
	Render(layout string, data map[string]any) (string, error)
}

// TaskPool runs derivative tasks on a bounded set of workers. Tasks receive
// nothing but their own arguments; Wait blocks until every submitted task has
// finished and returns their joined errors.
type TaskPool interface {
	Submit(task func(ctx context.Context) error)
	Wait() error
	Size() int
}

// ProbeFunc returns the pixel dimensions of an image file.
type ProbeFunc func(path string) (width, height int, err error)

// Site is the explicit build context threaded through every site and entry
// handler. A fresh Site is created for every build.
type Site struct {
	Config    *config.Site
	FullBuild bool
	Parallel  bool

	Hooks      *SiteHooks
	EntryHooks *EntryHooks

	Tree *folder.Tree

	Entries       []*Entry
	EntriesByID   map[string]*Entry
	SortedEntries []*Entry
	TagGroups     map[string][]*Entry
	Tags          []string

	Output    *workspace.Manager
	Templates Renderer
	Compiler  Compiler
	Store     *incremental.Store
	Pool      TaskPool
	Resize    incremental.ResizeFunc
	Probe     ProbeFunc

	Report   *BuildReport
	Observer BuildObserver
	Recorder metrics.Recorder

	Revision  git.Revision
	StartedAt time.Time
}

// OutputPath returns the absolute output root.
func (s *Site) OutputPath() string { return s.Config.OutputPath() }

// Root returns the absolute working root.
func (s *Site) Root() string { return s.Config.Root }

// TemplateData returns the "site" value exposed to templates.
func (s *Site) TemplateData() map[string]any {
	entries := make([]map[string]any, 0, len(s.SortedEntries))
	for _, e := range s.SortedEntries {
		entries = append(entries, e.Summary())
	}
	groups := make(map[string][]map[string]any, len(s.TagGroups))
	for tag, list := range s.TagGroups {
		items := make([]map[string]any, 0, len(list))
		for _, e := range list {
			items = append(items, e.Summary())
		}
		groups[tag] = items
	}
	return map[string]any{
		"name":       s.Config.Name,
		"base_url":   s.Config.BaseURL,
		"options":    s.Config.Options.ToMap(),
		"entries":    entries,
		"tags":       s.Tags,
		"tag_groups": groups,
		"revision":   s.Revision.Commit,
		"short_rev":  s.Revision.Short(),
		"branch":     s.Revision.Branch,
		"build_time": s.StartedAt,
	}
}
