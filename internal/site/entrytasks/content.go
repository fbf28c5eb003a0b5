package entrytasks

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sitekicker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekicker/internal/logfields"
	"git.home.luguber.info/inful/sitekicker/internal/markup"
	"git.home.luguber.info/inful/sitekicker/internal/site/models"
)

var inlineTag = regexp.MustCompile(`\[\[file: ([^\]]+)\]\]`)

// ResolveInlinedFiles replaces every [[file: name]] tag in the raw content
// with the contents of name, relative to the entry folder. A missing file
// leaves its tag in place and degrades the entry.
func ResolveInlinedFiles(_ context.Context, e *models.Entry) error {
	e.InlinedFiles = nil
	e.RawContent = inlineTag.ReplaceAllStringFunc(e.RawContent, func(tag string) string {
		name := strings.TrimSpace(inlineTag.FindStringSubmatch(tag)[1])
		path := filepath.Join(e.Dir, filepath.FromSlash(name))
		// #nosec G304 -- include path comes from the entry's own content
		data, err := os.ReadFile(path)
		if err != nil {
			e.Warn(missingRef(e, "inlined file not found", models.ErrMissingFile, name))
			return tag
		}
		slog.Debug("Inlined file", logfields.Entry(e.ID), logfields.Path(path))
		e.InlinedFiles = append(e.InlinedFiles, path)
		return string(data)
	})
	return nil
}

// CompileMarkdown converts the raw content into HTML.
func CompileMarkdown(ctx context.Context, e *models.Entry) error {
	out, err := e.Site.Compiler.Compile(ctx, e.RawContent)
	if err != nil {
		return errors.WrapError(err, errors.CategoryMarkdown, "compile markdown").
			WithContext("entry", e.ID).WithContext("path", e.Path).Build()
	}
	e.CompileOutput = out
	return nil
}

// ResolveLinkedFiles records every local file referenced by an anchor.
// Links to directories, such as sibling entries, are not files and are
// ignored.
func ResolveLinkedFiles(_ context.Context, e *models.Entry) error {
	refs, err := markup.Extract(e.CompileOutput)
	if err != nil {
		return err
	}
	e.LinkedFiles = nil
	seen := map[string]bool{}
	for _, a := range refs.Anchors {
		if !markup.IsLocalFile(a.Href) {
			continue
		}
		name := localName(a.Href)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		f := &models.EntryFile{Title: a.Text, Name: name, Path: filepath.Join(e.Dir, filepath.FromSlash(name))}
		info, err := os.Stat(f.Path)
		switch {
		case err == nil && info.IsDir():
			continue
		case err == nil:
			f.Exists = true
		default:
			e.Warn(missingRef(e, "linked file not found", models.ErrMissingFile, name))
		}
		e.LinkedFiles = append(e.LinkedFiles, f)
	}
	return nil
}

// ResolveImages splits the images of the compiled HTML into external URLs
// and local files. Local images are probed for their pixel size.
func ResolveImages(_ context.Context, e *models.Entry) error {
	refs, err := markup.Extract(e.CompileOutput)
	if err != nil {
		return err
	}
	e.ExternalImages = nil
	e.LinkedImages = nil
	seen := map[string]bool{}
	for _, img := range refs.Images {
		if img.Src == "" || seen[img.Src] {
			continue
		}
		seen[img.Src] = true
		if markup.IsExternal(img.Src) {
			e.ExternalImages = append(e.ExternalImages, img.Src)
			continue
		}
		if !markup.IsLocalFile(img.Src) {
			continue
		}
		name := localName(img.Src)
		ei := &models.EntryImage{
			Src:     img.Src,
			Path:    filepath.Join(e.Dir, filepath.FromSlash(name)),
			Alt:     img.Alt,
			Classes: img.Classes,
		}
		if info, err := os.Stat(ei.Path); err != nil || info.IsDir() {
			e.Warn(missingRef(e, "linked image not found", models.ErrMissingImage, img.Src))
		} else {
			ei.Exists = true
			if e.Site.Probe != nil {
				w, h, err := e.Site.Probe(ei.Path)
				if err != nil {
					slog.Warn("Cannot read image size", logfields.Entry(e.ID), logfields.Path(ei.Path), logfields.Error(err))
				}
				ei.Width, ei.Height = w, h
			}
		}
		e.LinkedImages = append(e.LinkedImages, ei)
	}
	return nil
}

// missingRef is the warning recorded for a reference that does not resolve.
func missingRef(e *models.Entry, msg string, sentinel error, ref string) error {
	return errors.NotFoundError(msg).WithCause(sentinel).
		WithContext("entry", e.ID).WithContext("ref", ref).Build()
}

// localName strips query and fragment from a relative reference and
// decodes percent escapes.
func localName(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	return ref
}
