package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/minaret/pkg/adapter"
	"github.com/m-mizutani/minaret/pkg/model"
	"github.com/m-mizutani/minaret/pkg/repository"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// config holds configuration values
type config struct {
	// Source of truth
	project     string
	database    string
	credentials string

	// Serve
	addr            string
	logLevel        string
	cleanupInterval time.Duration
	sessionTTL      time.Duration
	workers         int64
	localeFile      string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "credentials",
			Usage:       "Path to a service account key file (optional, ADC otherwise)",
			Sources:     cli.EnvVars("GOOGLE_APPLICATION_CREDENTIALS"),
			Destination: &cfg.credentials,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("MINARET_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// serveFlags returns flags for the serve command
func serveFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Admin HTTP listen address",
			Value:       ":3000",
			Sources:     cli.EnvVars("MINARET_ADDR"),
			Destination: &cfg.addr,
		},
		&cli.DurationFlag{
			Name:        "cleanup-interval",
			Usage:       "Interval between stale-session sweeps",
			Value:       time.Hour,
			Sources:     cli.EnvVars("MINARET_CLEANUP_INTERVAL"),
			Destination: &cfg.cleanupInterval,
		},
		&cli.DurationFlag{
			Name:        "session-ttl",
			Usage:       "Maximum age of an active prayer session",
			Value:       20 * time.Minute,
			Sources:     cli.EnvVars("MINARET_SESSION_TTL"),
			Destination: &cfg.sessionTTL,
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Concurrent document handlers per batch",
			Value:       8,
			Sources:     cli.EnvVars("MINARET_WORKERS"),
			Destination: &cfg.workers,
		},
		&cli.StringFlag{
			Name:        "locale-file",
			Usage:       "YAML file overriding the built-in prayer name table",
			Sources:     cli.EnvVars("MINARET_LOCALE_FILE"),
			Destination: &cfg.localeFile,
		},
	}
}

func (cfg *config) clientOptions() []option.ClientOption {
	if cfg.credentials == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.credentials)}
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database, cfg.clientOptions()...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newMessenger creates a new FCM messenger instance
func (cfg *config) newMessenger(ctx context.Context) (adapter.Messenger, error) {
	messenger, err := adapter.NewFCM(ctx, cfg.clientOptions()...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create messenger")
	}
	return messenger, nil
}

// newLocale loads the prayer name table, with optional file override
func (cfg *config) newLocale() (*model.Locale, error) {
	if cfg.localeFile == "" {
		return model.DefaultLocale(), nil
	}
	return model.LoadLocale(cfg.localeFile)
}
