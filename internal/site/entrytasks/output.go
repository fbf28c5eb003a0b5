package entrytasks

import (
	"context"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitekicker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekicker/internal/logfields"
	"git.home.luguber.info/inful/sitekicker/internal/site/models"
	"git.home.luguber.info/inful/sitekicker/internal/version"
)

// TemplateData assembles the data a layout is rendered with: every resolved
// option at the top level plus the site, the entry and its content.
func TemplateData(e *models.Entry) map[string]any {
	data := e.Options.ToMap()
	entry := e.Summary()
	entry["fingerprint"] = e.Fingerprint
	entry["meta_tags"] = e.MetaTags
	entry["output_name"] = e.OutputName

	content := template.HTML(e.CompileOutput) // #nosec G203 -- compiled from the site's own content
	data["site"] = e.Site.TemplateData()
	data["entry"] = entry
	data["content"] = content
	data["entry_content"] = content
	data["perm_link"] = e.PermLink
	data["fingerprint"] = e.Fingerprint
	data["sitekicker"] = map[string]any{
		"version": version.Version,
		"commit":  version.GitCommit,
	}
	return data
}

// LinkEntry renders the entry through its layout.
func LinkEntry(_ context.Context, e *models.Entry) error {
	layout := e.Options.String("layout")
	out, err := e.Site.Templates.Render(layout, TemplateData(e))
	if err != nil {
		return errors.TemplateError("render layout").WithCause(err).
			WithContext("entry", e.ID).WithContext("layout", layout).Build()
	}
	e.HTMLOutput = out
	return nil
}

// WriteOutput writes the rendered HTML to the entry's output file.
func WriteOutput(_ context.Context, e *models.Entry) error {
	if err := os.MkdirAll(e.OutputPath, 0o750); err != nil {
		return errors.FileSystemError("create output directory").WithCause(err).
			WithContext("path", e.OutputPath).Build()
	}
	path := e.OutputFile()
	slog.Debug("Writing entry output", logfields.Entry(e.ID), logfields.Path(path))
	// #nosec G306 -- published site content is world readable
	if err := os.WriteFile(path, []byte(e.HTMLOutput), 0o644); err != nil {
		return errors.FileSystemError("write entry output").WithCause(err).
			WithContext("path", path).Build()
	}
	return nil
}

// CopyFiles copies every existing linked file next to the entry output,
// keeping its path relative to the entry folder.
func CopyFiles(_ context.Context, e *models.Entry) error {
	for _, f := range e.LinkedFiles {
		if !f.Exists {
			continue
		}
		dest := filepath.Join(e.OutputPath, filepath.FromSlash(f.Name))
		if err := e.Site.Output.CopyFile(f.Path, dest); err != nil {
			e.Warn(copyFailed(e, "copy linked file", f.Name, err))
		}
	}
	return nil
}

// Summary logs what was built for the entry.
func Summary(_ context.Context, e *models.Entry) error {
	slog.Info("Built entry",
		logfields.Entry(e.ID),
		logfields.Path(e.OutputFile()),
		slog.Int("images", len(e.LinkedImages)),
		slog.Int("external_images", len(e.ExternalImages)),
		slog.Int("files", len(e.LinkedFiles)),
		slog.Int("inlined_files", len(e.InlinedFiles)),
		slog.Int("warnings", len(e.Warnings)))
	return nil
}

// copyFailed is the warning recorded when a referenced file cannot be
// copied into the output.
func copyFailed(e *models.Entry, msg, ref string, err error) error {
	return errors.FileSystemError(msg).Warning().WithCause(err).
		WithContext("entry", e.ID).WithContext("ref", ref).Build()
}
