package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/automaxprocs/maxprocs"

	"git.home.luguber.info/inful/sitekicker/cmd/sitekicker/commands"
	"git.home.luguber.info/inful/sitekicker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekicker/internal/version"
)

func main() {
	var cli commands.CLI
	kong.Parse(&cli,
		kong.Name("sitekicker"),
		kong.Description("Build a static website from a folder of Markdown entries."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Run(ctx)
	stop()

	errors.NewCLIErrorAdapter(cli.Verbose(), slog.Default()).HandleError(err)
}
