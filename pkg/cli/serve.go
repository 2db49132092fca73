package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/minaret/pkg/controller/httpserv"
	"github.com/m-mizutani/minaret/pkg/service/dedup"
	"github.com/m-mizutani/minaret/pkg/service/state"
	"github.com/m-mizutani/minaret/pkg/usecase/cleanup"
	"github.com/m-mizutani/minaret/pkg/usecase/detect"
	"github.com/m-mizutani/minaret/pkg/usecase/notify"
	"github.com/m-mizutani/minaret/pkg/usecase/watch"
	"github.com/m-mizutani/minaret/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func serveCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "serve",
		Usage: "Watch the family document store and dispatch notifications",
		Flags: append(globalFlags(&cfg), serveFlags(&cfg)...),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.New(cfg.logLevel, os.Stderr)
			logging.SetDefault(logger)
			ctx = logging.With(ctx, logger)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			messenger, err := cfg.newMessenger(ctx)
			if err != nil {
				return err
			}

			locale, err := cfg.newLocale()
			if err != nil {
				return err
			}

			store := state.New()
			cache := dedup.New()
			detector := detect.New(store)
			router := notify.New(repo, messenger, cache, locale)
			watcher := watch.New(repo, detector, router, watch.WithWorkerLimit(int(cfg.workers)))
			cleaner := cleanup.New(store, repo, cleanup.WithSessionTTL(cfg.sessionTTL))
			server := httpserv.New(cfg.addr, router)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting minaret",
				"project", cfg.project,
				"database", cfg.database,
				"addr", cfg.addr,
				"cleanup_interval", cfg.cleanupInterval,
				"session_ttl", cfg.sessionTTL)

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return watcher.Run(ctx)
			})
			eg.Go(func() error {
				cleaner.Run(ctx, cfg.cleanupInterval)
				return nil
			})
			eg.Go(func() error {
				return server.Run(ctx)
			})

			return eg.Wait()
		},
	}
}
