package models

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekicker/internal/config"
	"git.home.luguber.info/inful/sitekicker/internal/folder"
	"git.home.luguber.info/inful/sitekicker/internal/options"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// scanEntries builds a site rooted at root and returns its entry folders by
// path relative to root.
func scanEntries(t *testing.T, root string, site ...any) (*Site, map[string]*folder.EntryFolder) {
	t.Helper()
	cfg, err := config.FromOptions(root, options.MergeAll(config.Defaults(), options.FromPairs(site...)))
	require.NoError(t, err)

	rules := folder.DefaultRules()
	rules.Site = cfg.Options
	tree, err := folder.Scan(root, rules)
	require.NoError(t, err)

	out := map[string]*folder.EntryFolder{}
	for _, f := range tree.Entries() {
		rel, err := filepath.Rel(tree.Root().Path(), f.Path())
		require.NoError(t, err)
		out[filepath.ToSlash(rel)] = f
	}
	return &Site{Config: cfg, Tree: tree}, out
}

func TestNewEntry_ResolvesLinksAndOutput(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "hello", "post.md"), "---\nid: hello\ntitle: Hi\ndate: 2020-01-01\n---\n# Hello\n")

	site, entries := scanEntries(t, root, "base_url", "http://x.test")
	e, err := NewEntry(site, entries["hello"])
	require.NoError(t, err)

	assert.Equal(t, "hello", e.ID)
	assert.Equal(t, "Hi", e.Title)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), e.Date)
	assert.Equal(t, "/hello", e.Link)
	assert.Equal(t, "http://x.test/hello", e.PermLink)
	assert.Equal(t, filepath.Join(root, ".dist", "hello"), e.OutputPath)
	assert.Equal(t, DefaultOutputName, e.OutputName)
	assert.Equal(t, "# Hello\n", e.RawContent)
	assert.NotEmpty(t, e.Fingerprint)
	assert.True(t, e.Publishable())
}

func TestNewEntry_PrefixFromFolderChain(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "blog", "folder.yml"), "prefix: blog\ntags: [news]\n")
	writeFile(t, filepath.Join(root, "blog", "2020", "folder.yml"), "prefix: \"2020\"\n")
	writeFile(t, filepath.Join(root, "blog", "2020", "first", "post.md"),
		"---\nid: first\ntitle: First\ntags: [go, news]\nlayout: post\n---\nbody\n")

	site, entries := scanEntries(t, root, "base_url", "https://example.org/", "prefix", []any{"en"})
	e, err := NewEntry(site, entries["blog/2020/first"])
	require.NoError(t, err)

	assert.Equal(t, "/en/blog/2020/first", e.Link)
	assert.Equal(t, "https://example.org/en/blog/2020/first", e.PermLink)
	assert.Equal(t, filepath.Join(root, ".dist", "en", "blog", "2020", "first"), e.OutputPath)
	assert.Equal(t, []string{"news", "go"}, e.Options.Strings(options.KeyTags))
	assert.Equal(t, "post", e.Options.String("layout"))
	assert.False(t, e.Publishable(), "entry without date is a draft")
}

func TestNewEntry_OutputOverrides(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "about", "page.md"),
		"---\nid: about\ntitle: About\noutput_path: pages/about-us\noutput_name: about.html\n---\n")

	site, entries := scanEntries(t, root)
	e, err := NewEntry(site, entries["about"])
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".dist", "pages", "about-us"), e.OutputPath)
	assert.Equal(t, filepath.Join(root, ".dist", "pages", "about-us", "about.html"), e.OutputFile())
	assert.Equal(t, "/about", e.PermLink)
}

func TestNewEntry_OutputPathMustStayInsideOutputRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "evil", "page.md"),
		"---\nid: evil\ntitle: Evil\noutput_path: ../../etc\n---\n")

	site, entries := scanEntries(t, root)
	_, err := NewEntry(site, entries["evil"])
	require.ErrorIs(t, err, ErrOutputEscapes)
}

func TestParseDate(t *testing.T) {
	ts := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	cases := []struct {
		in   any
		want time.Time
	}{
		{"2021-03-04", time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"2021-03-04T05:06:07Z", ts},
		{"2021-03-04 05:06:07", ts},
		{ts, ts},
		{"yesterday", time.Time{}},
		{42, time.Time{}},
		{nil, time.Time{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseDate(tc.in), "input %v", tc.in)
	}
}

func TestSortByDateDesc_ExcludesDrafts(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC) }
	a := &Entry{ID: "a", Date: day(1)}
	b := &Entry{ID: "b", Date: day(3)}
	c := &Entry{ID: "c", Date: day(2)}
	draft := &Entry{ID: "draft"}

	sorted := SortByDateDesc([]*Entry{a, draft, b, c})
	ids := make([]string, len(sorted))
	for i, e := range sorted {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)

	assert.True(t, b.Greater(a))
	assert.True(t, a.Less(c))
	assert.True(t, a.Equal(&Entry{Date: day(1)}))
}

func TestEntryBuild_RunsStagesInOrder(t *testing.T) {
	hooks := NewEntryHooks()
	var trace []string
	step := func(name string) EntryHandler {
		return func(_ context.Context, e *Entry) error {
			trace = append(trace, name)
			return nil
		}
	}
	hooks.MustRegister(StagePostLink, "write", step("write"))
	hooks.MustRegister(StageCompile, "compile", step("compile"))
	hooks.MustRegister(StagePreCompile, "inline", step("inline"))
	hooks.MustRegister(StageLink, "link", step("link"))

	require.NoError(t, (&Entry{ID: "x"}).Build(context.Background(), hooks))
	assert.Equal(t, []string{"inline", "compile", "link", "write"}, trace)
}

func TestEntryBuild_WarningContinuesFatalStops(t *testing.T) {
	hooks := NewEntryHooks()
	reached := false
	hooks.MustRegister(StagePostCompile, "images", func(context.Context, *Entry) error {
		return NewWarnStageError(StagePostCompile, "images", errors.New("missing image"))
	})
	hooks.MustRegister(StageLink, "link", func(context.Context, *Entry) error {
		return errors.New("template exploded")
	})
	hooks.MustRegister(StagePostLink, "write", func(context.Context, *Entry) error {
		reached = true
		return nil
	})

	e := &Entry{ID: "x"}
	err := e.Build(context.Background(), hooks)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Equal(t, "link", se.Stage)
	assert.Equal(t, "link", se.Handler)
	assert.False(t, reached)
	assert.True(t, e.Degraded())
	assert.Len(t, e.Warnings, 1)
}

func TestEntryBuild_CanceledContext(t *testing.T) {
	hooks := NewEntryHooks()
	hooks.MustRegister(StageCompile, "compile", func(context.Context, *Entry) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := (&Entry{ID: "x"}).Build(ctx, hooks)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.ErrorIs(t, err, context.Canceled)
}
