package stages

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/sitekicker/internal/folder"
	"git.home.luguber.info/inful/sitekicker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekicker/internal/git"
	"git.home.luguber.info/inful/sitekicker/internal/incremental"
	"git.home.luguber.info/inful/sitekicker/internal/logfields"
	"git.home.luguber.info/inful/sitekicker/internal/options"
	"git.home.luguber.info/inful/sitekicker/internal/site/models"
	"git.home.luguber.info/inful/sitekicker/internal/templates"
	"git.home.luguber.info/inful/sitekicker/internal/workspace"
)

// RegisterDefaults registers the built-in site handlers.
func RegisterDefaults(hooks *models.SiteHooks) {
	hooks.MustRegister(models.StagePreScan, "start-building", StartBuilding)
	hooks.MustRegister(models.StagePreScan, "load-templates", LoadTemplates)
	hooks.MustRegister(models.StagePreScan, "prepare-output", PrepareOutput)
	hooks.MustRegister(models.StagePreScan, "load-snapshot", LoadSnapshot)
	hooks.MustRegister(models.StagePreScan, "read-revision", ReadRevision)
	hooks.MustRegister(models.StageScan, "scan-folders", ScanFolders)
	hooks.MustRegister(models.StagePreBuild, "convert-entries", ConvertEntries)
	hooks.MustRegister(models.StagePreBuild, "sort-entries", SortEntries)
	hooks.MustRegister(models.StagePreBuild, "group-tags", GroupTags)
	hooks.MustRegister(models.StageBuild, "build-entries", BuildEntries)
	hooks.MustRegister(models.StagePostBuild, "end-building", EndBuilding)
	hooks.MustRegister(models.StagePreSummary, "dump-snapshot", DumpSnapshot)
	hooks.MustRegister(models.StagePreSummary, "copy-assets", CopyAssets)
	hooks.MustRegister(models.StageSummary, "summary", Summary)
}

// StartBuilding stamps the build start.
func StartBuilding(_ context.Context, s *models.Site) error {
	s.StartedAt = time.Now()
	slog.Info("Start building", logfields.Path(s.Root()), logfields.BuildID(s.Report.ID))
	if s.Hooks != nil {
		slog.Debug("Registered site handlers", slog.String("pipeline", s.Hooks.Describe()))
	}
	if s.EntryHooks != nil {
		slog.Debug("Registered entry handlers", slog.String("pipeline", s.EntryHooks.Describe()))
	}
	return nil
}

// LoadTemplates parses the layouts of the template directory.
func LoadTemplates(_ context.Context, s *models.Site) error {
	reg, err := templates.Load(s.Config.TemplatePath())
	if err != nil {
		return errors.TemplateError("load templates").WithCause(err).
			WithContext("path", s.Config.TemplatePath()).Build()
	}
	s.Templates = reg
	return nil
}

// PrepareOutput creates the output directory and checks it is writable.
func PrepareOutput(_ context.Context, s *models.Site) error {
	if s.Output == nil {
		s.Output = workspace.NewManager(s.OutputPath())
	}
	if err := s.Output.Prepare(); err != nil {
		return errors.FileSystemError("prepare output directory").WithCause(err).
			Fatal().WithContext("path", s.OutputPath()).Build()
	}
	return nil
}

func snapshotPath(s *models.Site) string {
	return filepath.Join(s.OutputPath(), incremental.SnapshotName)
}

// LoadSnapshot restores the derivative cache of the previous build.
func LoadSnapshot(_ context.Context, s *models.Site) error {
	s.Store = incremental.Load(snapshotPath(s)).WithRecorder(s.Recorder)
	return nil
}

// ReadRevision records the git commit and branch of the working root, when
// there is one.
func ReadRevision(_ context.Context, s *models.Site) error {
	rev, err := git.HeadRevision(s.Root())
	switch {
	case stderrors.Is(err, git.ErrNotRepository):
		slog.Debug("Working root is not a git repository", logfields.Path(s.Root()))
	case err != nil:
		slog.Warn("Cannot read git revision", logfields.Path(s.Root()), logfields.Error(err))
	default:
		s.Revision = rev
	}
	return nil
}

// ScanFolders classifies the working tree.
func ScanFolders(_ context.Context, s *models.Site) error {
	cfg := s.Config
	rules := folder.DefaultRules()
	rules.AssetDirs = cfg.AssetDirs
	rules.TemplateDir = cfg.TemplateDir
	rules.IgnorePatterns = cfg.IgnoreDirs
	rules.Exclude = []string{s.OutputPath()}
	rules.Site = cfg.Options

	tree, err := folder.Scan(s.Root(), rules)
	if err != nil {
		return errors.FileSystemError("scan working directory").WithCause(err).
			Fatal().WithContext("path", s.Root()).Build()
	}
	s.Tree = tree
	slog.Info("Scanned folders",
		logfields.Count(len(tree.Folders())),
		slog.Int("entries", len(tree.Entries())),
		slog.Int("assets", len(tree.Assets())))
	return nil
}

// ConvertEntries turns every entry folder into an entry. Two folders
// declaring the same id abort the build before any output is written.
func ConvertEntries(_ context.Context, s *models.Site) error {
	s.Entries = nil
	s.EntriesByID = map[string]*models.Entry{}
	for _, f := range s.Tree.Entries() {
		e, err := models.NewEntry(s, f)
		if err != nil {
			return errors.ValidationError("invalid entry").WithCause(err).
				WithContext("path", f.MainFile).Build()
		}
		if prev, ok := s.EntriesByID[e.ID]; ok {
			return errors.ValidationError("duplicate entry id").
				WithCause(fmt.Errorf("%w: %s", models.ErrDuplicateID, e.ID)).
				WithContext("id", e.ID).
				WithContext("first", prev.Path).
				WithContext("second", e.Path).
				Build()
		}
		s.EntriesByID[e.ID] = e
		s.Entries = append(s.Entries, e)
	}
	s.Report.Entries = len(s.Entries)
	return nil
}

// SortEntries orders the publishable entries newest first.
func SortEntries(_ context.Context, s *models.Site) error {
	s.SortedEntries = models.SortByDateDesc(s.Entries)
	return nil
}

// GroupTags groups the sorted entries by tag.
func GroupTags(_ context.Context, s *models.Site) error {
	s.TagGroups = map[string][]*models.Entry{}
	for _, e := range s.SortedEntries {
		for _, tag := range e.Options.Strings(options.KeyTags) {
			s.TagGroups[tag] = append(s.TagGroups[tag], e)
		}
	}
	s.Tags = make([]string, 0, len(s.TagGroups))
	for tag := range s.TagGroups {
		s.Tags = append(s.Tags, tag)
	}
	sort.Strings(s.Tags)
	return nil
}

// BuildEntries runs the entry pipeline for every publishable entry in
// discovery order. Entries without a date are drafts and are not written.
func BuildEntries(ctx context.Context, s *models.Site) error {
	for _, e := range s.Entries {
		if !e.Publishable() {
			s.Report.Drafts++
			slog.Debug("Skipping draft entry", logfields.Entry(e.ID), logfields.Path(e.Path))
			continue
		}
		if err := e.Build(ctx, s.EntryHooks); err != nil {
			return err
		}
		if e.Degraded() {
			s.Report.DegradedEntries++
			for _, w := range e.Warnings {
				s.Report.AddWarning(w)
			}
		}
	}
	return nil
}

// EndBuilding joins the worker pool. Failed derivatives are recorded as
// warnings; the entries referencing them are already written.
func EndBuilding(_ context.Context, s *models.Site) error {
	err := s.Pool.Wait()
	if s.Store != nil {
		s.Report.CacheHits = s.Store.Hits()
		s.Report.CacheMisses = s.Store.Misses()
		s.Report.Derivatives = int(s.Report.CacheHits + s.Report.CacheMisses)
	}
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return models.NewCanceledStageError(models.StagePostBuild, "end-building", err)
	}
	failed := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		failed = joined.Unwrap()
	}
	for _, f := range failed {
		slog.Warn("Derivative failed", logfields.Error(f))
	}
	return models.NewWarnStageError(models.StagePostBuild, "end-building",
		errors.BuildError(fmt.Sprintf("%d derivative tasks failed", len(failed))).
			Warning().WithCause(err).WithContext("failed", len(failed)).Build())
}

// DumpSnapshot persists the derivative cache. It runs after the pool is
// joined, so every finished task is included.
func DumpSnapshot(_ context.Context, s *models.Site) error {
	if s.Store == nil {
		return nil
	}
	if err := s.Store.Save(snapshotPath(s)); err != nil {
		return models.NewWarnStageError(models.StagePreSummary, "dump-snapshot", err)
	}
	return nil
}

// CopyAssets copies every asset folder into the output, keeping its path
// relative to the working root.
func CopyAssets(_ context.Context, s *models.Site) error {
	for _, a := range s.Tree.Assets() {
		dest := filepath.Join(s.OutputPath(), filepath.FromSlash(a.Rel))
		n, err := s.Output.CopyTree(a.Path(), dest)
		if err != nil {
			return errors.FileSystemError("copy assets").WithCause(err).
				Fatal().WithContext("path", a.Path()).Build()
		}
		slog.Debug("Copied assets", logfields.Path(dest), logfields.Count(n))
	}
	return nil
}

// Summary logs the elapsed build time.
func Summary(_ context.Context, s *models.Site) error {
	elapsed := time.Since(s.StartedAt)
	slog.Info(fmt.Sprintf("%.2f seconds used to build!", elapsed.Seconds()),
		logfields.BuildID(s.Report.ID),
		slog.Int("entries", s.Report.Entries),
		slog.Int("degraded", s.Report.DegradedEntries),
		slog.Int("derivatives", s.Report.Derivatives),
		logfields.DurationMS(float64(elapsed.Milliseconds())))
	return nil
}
