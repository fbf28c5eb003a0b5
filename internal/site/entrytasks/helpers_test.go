package entrytasks

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekicker/internal/config"
	"git.home.luguber.info/inful/sitekicker/internal/imaging"
	"git.home.luguber.info/inful/sitekicker/internal/incremental"
	"git.home.luguber.info/inful/sitekicker/internal/markdown"
	"git.home.luguber.info/inful/sitekicker/internal/options"
	"git.home.luguber.info/inful/sitekicker/internal/site/models"
	"git.home.luguber.info/inful/sitekicker/internal/templates"
	"git.home.luguber.info/inful/sitekicker/internal/workpool"
	"git.home.luguber.info/inful/sitekicker/internal/workspace"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

// newSite returns a site rooted in a temp dir with real collaborators and a
// two worker pool. Extra site options are given as key/value pairs.
func newSite(t *testing.T, pairs ...any) *models.Site {
	t.Helper()
	root := t.TempDir()
	cfg, err := config.FromOptions(root, options.MergeAll(config.Defaults(), options.FromPairs(pairs...)))
	require.NoError(t, err)
	reg, err := templates.Load(cfg.TemplatePath())
	require.NoError(t, err)

	pool := workpool.New(context.Background(), 2)
	t.Cleanup(pool.Close)

	return &models.Site{
		Config:    cfg,
		Output:    workspace.NewManager(cfg.OutputPath()),
		Templates: reg,
		Compiler:  markdown.New(markdown.Options{}),
		Store:     incremental.NewStore(),
		Pool:      pool,
		Resize:    imaging.Resize,
		Probe:     imaging.Probe,
	}
}

func newEntry(site *models.Site, id string) *models.Entry {
	return &models.Entry{
		Site:       site,
		ID:         id,
		Dir:        filepath.Join(site.Root(), id),
		OutputPath: filepath.Join(site.OutputPath(), id),
		OutputName: models.DefaultOutputName,
		Link:       "/" + id,
		PermLink:   site.Config.BaseURL + "/" + id,
		Options:    options.New(),
	}
}
