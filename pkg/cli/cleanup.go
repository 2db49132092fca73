package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/minaret/pkg/service/state"
	"github.com/m-mizutani/minaret/pkg/usecase/cleanup"
	"github.com/m-mizutani/minaret/pkg/usecase/detect"
	"github.com/m-mizutani/minaret/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cleanupCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "cleanup",
		Usage: "Run a single stale-session sweep and exit",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.New(cfg.logLevel, os.Stderr)
			logging.SetDefault(logger)
			ctx = logging.With(ctx, logger)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			// Seed the state store from the feed's baseline snapshot, then
			// sweep it the same way the long-running scheduler does.
			feedCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			feed, err := repo.WatchMembers(feedCtx)
			if err != nil {
				return goerr.Wrap(err, "failed to open member feed")
			}

			batch, ok := <-feed
			if !ok {
				return goerr.New("member feed closed before baseline snapshot")
			}
			cancel()

			store := state.New()
			detector := detect.New(store)
			for _, ch := range batch.Changes {
				if ch.Member != nil {
					detector.SeedMember(ch.Path, ch.Member)
				}
			}

			cleaner := cleanup.New(store, repo)
			cleared := cleaner.Sweep(ctx)
			logger.Info("sweep finished", "tracked", store.Len(), "cleared", cleared)
			return nil
		},
	}
}
