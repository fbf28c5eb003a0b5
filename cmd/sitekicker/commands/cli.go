// Package commands defines the sitekicker command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitekicker/internal/config"
	"git.home.luguber.info/inful/sitekicker/internal/logfields"
	"git.home.luguber.info/inful/sitekicker/internal/metrics"
	"git.home.luguber.info/inful/sitekicker/internal/preview"
	"git.home.luguber.info/inful/sitekicker/internal/site"
)

// CLI is the root command: build the site in Folder, then optionally watch
// and serve it.
type CLI struct {
	Folder     string           `arg:"" optional:"" default:"." type:"existingdir" help:"Working folder holding sitekicker.yml."`
	LogLevel   string           `name:"log-level" enum:"debug,info,warning,error,critical" default:"info" help:"Log level (${enum})."`
	NoParallel bool             `name:"no-parallel" help:"Process images on a single worker."`
	Watch      bool             `short:"w" help:"Rebuild when files change."`
	Serve      bool             `short:"s" help:"Serve the output directory."`
	FullBuild  bool             `short:"f" name:"full-build" help:"Regenerate every image derivative."`
	OutputDir  string           `short:"o" name:"output-dir" help:"Override output_dir of sitekicker.yml."`
	Port       int              `short:"p" default:"8000" help:"Port of the preview server."`
	Version    kong.VersionFlag `short:"V" help:"Show version and exit."`
}

// ParseLevel maps a --log-level value to a slog level. critical maps to
// error, the highest slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error", "critical":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// Verbose reports whether debug logging was requested.
func (c *CLI) Verbose() bool { return strings.EqualFold(c.LogLevel, "debug") }

// Run builds the site once and then watches and serves it as requested,
// until ctx is done.
func (c *CLI) Run(ctx context.Context) error {
	cfg, err := config.Load(c.Folder, config.Overrides{OutputDir: c.OutputDir})
	if err != nil {
		return err
	}

	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	opts := site.Options{FullBuild: c.FullBuild, Parallel: !c.NoParallel, Recorder: rec}

	if _, err := site.NewDriver(cfg, opts).Build(ctx); err != nil {
		if !c.Watch {
			return err
		}
		slog.Error("Initial build failed; waiting for changes", logfields.Error(err))
	}
	if !c.Watch && !c.Serve {
		return nil
	}

	// Later builds follow the cache even when the first one was full.
	opts.FullBuild = false
	rebuilder := site.NewDriver(cfg, opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	run := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errs <- err
				cancel()
			}
		}()
	}

	if c.Watch {
		run(func() error {
			return preview.Watch(ctx, preview.WatchOptions{Root: cfg.Root, Output: cfg.OutputPath()},
				func(ctx context.Context) error {
					_, err := rebuilder.Build(ctx)
					return err
				})
		})
	}
	if c.Serve {
		addr := net.JoinHostPort("", strconv.Itoa(c.Port))
		run(func() error {
			return preview.Serve(ctx, addr, preview.Handler(cfg.OutputPath(), reg))
		})
	}

	wg.Wait()
	close(errs)
	return <-errs
}
