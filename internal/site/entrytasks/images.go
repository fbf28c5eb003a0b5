package entrytasks

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/sitekicker/internal/imaging"
	"git.home.luguber.info/inful/sitekicker/internal/incremental"
	"git.home.luguber.info/inful/sitekicker/internal/logfields"
	"git.home.luguber.info/inful/sitekicker/internal/markup"
	"git.home.luguber.info/inful/sitekicker/internal/site/models"
	"git.home.luguber.info/inful/sitekicker/internal/workspace"
)

// MetaTagsOption is the option key holding the entry's meta tags.
const MetaTagsOption = "meta_tags"

// RewriteResponsiveImages replaces every resolved local <img> with its
// lazy-loading responsive form and every external one with a lazy tag.
// Images that could not be resolved, measured or resized are left untouched.
func RewriteResponsiveImages(_ context.Context, e *models.Entry) error {
	bySrc := make(map[string]*models.EntryImage, len(e.LinkedImages))
	for _, img := range e.LinkedImages {
		bySrc[img.Src] = img
	}
	cfg := e.Site.Config
	out, err := markup.RewriteImages(e.CompileOutput, func(img markup.Image) (string, bool) {
		if markup.IsExternal(img.Src) {
			return markup.LazyExternal(img.Src), true
		}
		ei, ok := bySrc[img.Src]
		if !ok || !resizable(ei) {
			return "", false
		}
		widths := imaging.ResponsiveWidths(ei.Width, cfg.ResponsiveImageSizes)
		r := markup.Responsive{
			Width:       ei.Width,
			Height:      ei.Height,
			Placeholder: imaging.DerivativeName(ei.Src, cfg.ImagePlaceholderSize),
			Default:     imaging.DerivativeName(ei.Src, defaultWidth(widths)),
			Classes:     ei.Classes,
			Alt:         ei.Alt,
		}
		for _, w := range widths {
			r.SrcSet = append(r.SrcSet, markup.SrcSetEntry{URL: imaging.DerivativeName(ei.Src, w), Width: w})
		}
		return r.HTML(), true
	})
	if err != nil {
		return err
	}
	e.CompileOutput = out
	return nil
}

// defaultWidth picks the second srcset width, or the only one.
func defaultWidth(widths []int) int {
	if len(widths) > 1 {
		return widths[1]
	}
	return widths[0]
}

// SetupMetaTags detects the optional page features templates may load
// assets for.
func SetupMetaTags(_ context.Context, e *models.Entry) error {
	hasImages := len(e.LinkedImages) > 0 || len(e.ExternalImages) > 0
	e.MetaTags = markup.MetaTags(e.CompileOutput, e.RawContent, hasImages)
	sort.Strings(e.MetaTags)
	tags := make([]any, len(e.MetaTags))
	for i, t := range e.MetaTags {
		tags[i] = t
	}
	e.Options.Set(MetaTagsOption, tags)
	return nil
}

// ProcessResponsiveImages schedules every srcset derivative and the
// placeholder of each resolved local image on the site's worker pool.
// Failures surface when the pool is joined after the build stage.
func ProcessResponsiveImages(_ context.Context, e *models.Entry) error {
	cfg := e.Site.Config
	for _, img := range e.LinkedImages {
		if !img.Exists {
			continue
		}
		if !resizable(img) {
			copyImage(e, img)
			continue
		}
		for _, w := range imaging.ResponsiveWidths(img.Width, cfg.ResponsiveImageSizes) {
			submitDerivative(e, img, imaging.DerivativeName(img.Src, w), w, cfg.DerivativeQuality())
		}
		placeholder := cfg.ImagePlaceholderSize
		submitDerivative(e, img, imaging.DerivativeName(img.Src, placeholder), placeholder, cfg.ImagePlaceholderQuality)
	}
	return nil
}

// CopyImages copies every resolved local image next to the entry output.
// When compression is on, images wider than maximum_image_width are
// scaled down under the same name instead, unless their format has no
// encoder.
func CopyImages(_ context.Context, e *models.Entry) error {
	cfg := e.Site.Config
	for _, img := range e.LinkedImages {
		if !img.Exists {
			continue
		}
		if cfg.CompressImage && img.Width > cfg.MaximumImageWidth && imaging.Resizable(localName(img.Src)) {
			submitDerivative(e, img, img.Src, cfg.MaximumImageWidth, cfg.CompressImageQuality)
			continue
		}
		copyImage(e, img)
	}
	return nil
}

// resizable reports whether derivatives of img can be generated.
func resizable(img *models.EntryImage) bool {
	return img.Exists && img.Width > 0 && imaging.Resizable(localName(img.Src))
}

func copyImage(e *models.Entry, img *models.EntryImage) {
	dest := filepath.Join(e.OutputPath, filepath.FromSlash(localName(img.Src)))
	if err := e.Site.Output.CopyFile(img.Path, dest); err != nil {
		e.Warn(copyFailed(e, "copy linked image", img.Src, err))
	}
}

// submitDerivative queues the derivative of img written as name relative to
// the entry output. The task captures only its own arguments and the shared
// store; it never touches the entry.
func submitDerivative(e *models.Entry, img *models.EntryImage, name string, width, quality int) {
	dest := filepath.Join(e.OutputPath, filepath.FromSlash(localName(name)))
	if !e.Site.Output.Contains(dest) {
		e.Warn(copyFailed(e, "write image derivative", img.Src, workspace.ErrOutsideOutput))
		return
	}
	task := incremental.Task{Source: img.Path, Dest: dest, Width: width, Quality: quality}
	store, resize, full := e.Site.Store, e.Site.Resize, e.Site.FullBuild
	slog.Debug("Queue derivative", logfields.Entry(e.ID), logfields.Path(dest), logfields.Width(width), logfields.Quality(quality))
	e.Site.Pool.Submit(func(ctx context.Context) error {
		_, err := incremental.EnsureDerivative(ctx, task, store, resize, full)
		return err
	})
}
