package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	configloader "github.com/foxseedlab/fanreel/external/config"
	objectstoreimpl "github.com/foxseedlab/fanreel/external/objectstore"
	"github.com/foxseedlab/fanreel/internal/config"
	"github.com/foxseedlab/fanreel/internal/session"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

type sessionAdmin interface {
	ListSessions(ctx context.Context) ([]session.Summary, error)
	ClearAll(ctx context.Context) (session.ClearResult, error)
	Cleanup(ctx context.Context, retention time.Duration) (int, error)
}

// commandContext resolves the store lazily so that --help works without
// configuration.
type commandContext struct {
	open func() (sessionAdmin, time.Duration, error)
}

func newCommandContext() *commandContext {
	return &commandContext{
		open: func() (sessionAdmin, time.Duration, error) {
			cfg, err := configloader.Load()
			if err != nil {
				return nil, 0, err
			}
			injector := do.New()
			do.ProvideValue(injector, cfg)
			objectstoreimpl.RegisterDI(injector)
			session.RegisterDI(injector)
			store, err := do.Invoke[*session.Store](injector)
			if err != nil {
				return nil, 0, err
			}
			return store, retentionOf(cfg), nil
		},
	}
}

func retentionOf(cfg *config.Config) time.Duration {
	if cfg.SessionRetention > 0 {
		return cfg.SessionRetention
	}
	return session.DefaultRetention
}

func newRootCommand(ctx *commandContext) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "sessions",
		Short:         "List and clean up stored pipeline sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newListCommand(ctx))
	root.AddCommand(newClearCommand(ctx))
	root.AddCommand(newCleanupCommand(ctx))
	return root
}
