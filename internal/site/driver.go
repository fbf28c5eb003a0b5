// Package site drives a complete build of one site.
package site

import (
	"context"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/sitekicker/internal/config"
	"git.home.luguber.info/inful/sitekicker/internal/imaging"
	"git.home.luguber.info/inful/sitekicker/internal/incremental"
	"git.home.luguber.info/inful/sitekicker/internal/logfields"
	"git.home.luguber.info/inful/sitekicker/internal/markdown"
	"git.home.luguber.info/inful/sitekicker/internal/metrics"
	"git.home.luguber.info/inful/sitekicker/internal/site/entrytasks"
	"git.home.luguber.info/inful/sitekicker/internal/site/models"
	"git.home.luguber.info/inful/sitekicker/internal/site/stages"
	"git.home.luguber.info/inful/sitekicker/internal/workpool"
	"git.home.luguber.info/inful/sitekicker/internal/workspace"
)

// Options tune a Driver.
type Options struct {
	// FullBuild regenerates every derivative regardless of the cache.
	FullBuild bool
	// Parallel sizes the worker pool to the available CPUs; otherwise one
	// worker runs derivative tasks.
	Parallel bool
	Recorder metrics.Recorder
}

// Driver builds one site. Every Build starts from a fresh build context,
// so a Driver can be reused by the watcher.
type Driver struct {
	cfg  *config.Site
	opts Options
}

// NewDriver creates a driver for cfg.
func NewDriver(cfg *config.Site, opts Options) *Driver {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Driver{cfg: cfg, opts: opts}
}

// Config returns the site configuration the driver builds.
func (d *Driver) Config() *config.Site { return d.cfg }

// Build runs the site pipeline once. The returned report is never nil; it
// is persisted into the output directory whenever that directory exists.
func (d *Driver) Build(ctx context.Context) (*models.BuildReport, error) {
	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	pool := workpool.New(poolCtx, workpool.ResolveSize(d.opts.Parallel))
	defer pool.Close()
	d.opts.Recorder.SetWorkerPoolSize(pool.Size())

	s := d.newSite(pool)
	slog.Debug("Worker pool ready", logfields.BuildID(s.Report.ID), logfields.Workers(pool.Size()))

	err := stages.RunSite(ctx, s)
	if err != nil {
		// Queued derivatives of an aborted build are abandoned.
		cancel()
	}

	report := s.Report
	report.Finish()
	report.DeriveOutcome()
	s.Observer.OnBuildComplete(report)

	if info, statErr := os.Stat(s.OutputPath()); statErr == nil && info.IsDir() {
		if perr := report.Persist(s.OutputPath()); perr != nil {
			slog.Warn("Cannot persist build report", logfields.Path(s.OutputPath()), logfields.Error(perr))
		}
	}

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	slog.Log(ctx, level, "Build finished", logfields.BuildID(report.ID), slog.String("summary", report.Summary()))
	return report, err
}

func (d *Driver) newSite(pool *workpool.Pool) *models.Site {
	rec := d.opts.Recorder
	s := &models.Site{
		Config:     d.cfg,
		FullBuild:  d.opts.FullBuild,
		Parallel:   d.opts.Parallel,
		Hooks:      models.NewSiteHooks(),
		EntryHooks: models.NewEntryHooks(),
		Output:     workspace.NewManager(d.cfg.OutputPath()),
		Compiler:   markdown.New(markdown.Options{HighlightStyle: d.cfg.HighlightStyle}),
		Store:      incremental.NewStore().WithRecorder(rec),
		Pool:       pool,
		Resize:     timedResize(imaging.Resize, rec),
		Probe:      imaging.Probe,
		Report:     models.NewBuildReport(),
		Observer:   models.RecorderObserver{Recorder: rec},
		Recorder:   rec,
	}
	stages.RegisterDefaults(s.Hooks)
	entrytasks.RegisterDefaults(s.EntryHooks, d.cfg.ResponsiveImages)
	return s
}

func timedResize(resize incremental.ResizeFunc, rec metrics.Recorder) incremental.ResizeFunc {
	return func(src, dest string, width, quality int) error {
		t0 := time.Now()
		err := resize(src, dest, width, quality)
		rec.ObserveDerivativeDuration(time.Since(t0))
		return err
	}
}
