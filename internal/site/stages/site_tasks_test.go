package stages

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekicker/internal/config"
	ferrors "git.home.luguber.info/inful/sitekicker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekicker/internal/incremental"
	"git.home.luguber.info/inful/sitekicker/internal/site/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newTaskSite(t *testing.T, root string) *models.Site {
	t.Helper()
	cfg, err := config.FromOptions(root, config.Defaults())
	require.NoError(t, err)
	return &models.Site{Config: cfg, Hooks: models.NewSiteHooks(), Report: models.NewBuildReport()}
}

func TestConvertEntries_DuplicateIDIsValidationError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "post.md"), "---\nid: same\ntitle: A\n---\n")
	writeFile(t, filepath.Join(root, "b", "post.md"), "---\nid: same\ntitle: B\n---\n")

	s := newTaskSite(t, root)
	ctx := context.Background()
	require.NoError(t, ScanFolders(ctx, s))
	err := ConvertEntries(ctx, s)

	require.ErrorIs(t, err, models.ErrDuplicateID)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	id, _ := classified.Context().GetString("id")
	assert.Equal(t, "same", id)
	assert.Equal(t, ferrors.SeverityFatal, classified.Severity())
}

func TestConvertEntries_SkipsOutputDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "post.md"), "---\nid: a\ntitle: A\n---\n")
	// A stale copy of a source folder inside the output must not be scanned.
	writeFile(t, filepath.Join(root, ".dist", "a", "post.md"), "---\nid: a\ntitle: A\n---\n")
	writeFile(t, filepath.Join(root, "public", "a", "post.md"), "---\nid: a\ntitle: A\n---\n")

	s := newTaskSite(t, root)
	s.Config.OutputDir = "public"
	ctx := context.Background()
	require.NoError(t, ScanFolders(ctx, s))
	require.NoError(t, ConvertEntries(ctx, s))
	assert.Equal(t, 1, s.Report.Entries)
}

func TestSortAndGroupTags(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "post.md"), "---\nid: a\ntitle: A\ndate: 2020-01-01\ntags: [go, web]\n---\n")
	writeFile(t, filepath.Join(root, "b", "post.md"), "---\nid: b\ntitle: B\ndate: 2021-01-01\ntags: [go]\n---\n")
	writeFile(t, filepath.Join(root, "c", "post.md"), "---\nid: c\ntitle: Draft\ntags: [draft]\n---\n")

	s := newTaskSite(t, root)
	ctx := context.Background()
	for _, h := range []models.SiteHandler{ScanFolders, ConvertEntries, SortEntries, GroupTags} {
		require.NoError(t, h(ctx, s))
	}

	ids := func(list []*models.Entry) []string {
		out := make([]string, len(list))
		for i, e := range list {
			out[i] = e.ID
		}
		return out
	}
	assert.Equal(t, []string{"b", "a"}, ids(s.SortedEntries))
	assert.Equal(t, []string{"go", "web"}, s.Tags)
	assert.Equal(t, []string{"b", "a"}, ids(s.TagGroups["go"]))
	assert.Equal(t, []string{"a"}, ids(s.TagGroups["web"]))
}

type stubPool struct{ err error }

func (p *stubPool) Submit(func(context.Context) error) {}
func (p *stubPool) Wait() error                         { return p.err }
func (p *stubPool) Size() int                           { return 1 }

func TestEndBuilding(t *testing.T) {
	t.Run("joined failures become one warning", func(t *testing.T) {
		s := newTaskSite(t, t.TempDir())
		s.Store = incremental.NewStore()
		s.Pool = &stubPool{err: errors.Join(errors.New("a.png"), errors.New("b.png"))}

		err := EndBuilding(context.Background(), s)
		var se *models.StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, models.StageErrorWarning, se.Kind)
		assert.Contains(t, se.Error(), "2 derivative tasks failed")
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryBuild))
	})

	t.Run("cancellation", func(t *testing.T) {
		s := newTaskSite(t, t.TempDir())
		s.Pool = &stubPool{err: context.Canceled}

		err := EndBuilding(context.Background(), s)
		var se *models.StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, models.StageErrorCanceled, se.Kind)
	})

	t.Run("clean join", func(t *testing.T) {
		s := newTaskSite(t, t.TempDir())
		s.Store = incremental.NewStore()
		s.Pool = &stubPool{}
		require.NoError(t, EndBuilding(context.Background(), s))
		assert.Equal(t, 0, s.Report.Derivatives)
	})
}

func TestReadRevision_OutsideRepository(t *testing.T) {
	s := newTaskSite(t, t.TempDir())
	require.NoError(t, ReadRevision(context.Background(), s))
	assert.Empty(t, s.Revision)
}

func TestReadRevision_ExposesCommitAndBranch(t *testing.T) {
	root := t.TempDir()
	repo, err := gogit.PlainInit(root, false)
	require.NoError(t, err)
	writeFile(t, filepath.Join(root, "sitekicker.yml"), "name: x\n")
	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add("sitekicker.yml")
	require.NoError(t, err)
	commit, err := w.Commit("Initial commit", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com"},
	})
	require.NoError(t, err)

	s := newTaskSite(t, root)
	require.NoError(t, ReadRevision(context.Background(), s))

	data := s.TemplateData()
	assert.Equal(t, commit.String(), data["revision"])
	assert.Equal(t, commit.String()[:7], data["short_rev"])
	assert.Equal(t, "master", data["branch"])
}

func TestCopyAssets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "assets", "css", "site.css"), "body{}")

	s := newTaskSite(t, root)
	ctx := context.Background()
	require.NoError(t, PrepareOutput(ctx, s))
	require.NoError(t, ScanFolders(ctx, s))
	require.NoError(t, CopyAssets(ctx, s))

	data, err := os.ReadFile(filepath.Join(root, ".dist", "assets", "css", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))
}

func TestRegisterDefaults(t *testing.T) {
	hooks := models.NewSiteHooks()
	RegisterDefaults(hooks)
	assert.Equal(t, "pre-scan: start-building, load-templates, prepare-output, load-snapshot, read-revision\n"+
		"scan: scan-folders\n"+
		"pre-build: convert-entries, sort-entries, group-tags\n"+
		"build: build-entries\n"+
		"post-build: end-building\n"+
		"pre-summary: dump-snapshot, copy-assets\n"+
		"summary: summary", hooks.Describe())
}
