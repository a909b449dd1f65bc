// Package app wires the vault engine together from configuration:
// database, migrations, blob backend, notifier and the service itself.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/taxpilot/docvault/internal/blob"
	"github.com/taxpilot/docvault/internal/config"
	"github.com/taxpilot/docvault/internal/logging"
	"github.com/taxpilot/docvault/internal/notify"
	"github.com/taxpilot/docvault/internal/repositories/repomanager"
	"github.com/taxpilot/docvault/internal/vault"
)

// App holds the wired engine and the resources it owns.
type App struct {
	Config *config.Config
	Logger logging.Logger
	Vault  *vault.Service

	db       *sql.DB
	blobs    blob.Store
	notifier notify.Notifier
}

// New builds the engine: opens the database, runs migrations, selects the
// blob backend and notifier, and constructs the vault service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.KafkaBrokers != "" {
		notifier = notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Vault:    vault.NewService(db, rm, blobs, notifier, logger),
		db:       db,
		blobs:    blobs,
		notifier: notifier,
	}, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		return blob.NewS3Store(ctx, cfg)
	case config.BlobBackendBadger:
		return blob.NewBadgerStore(cfg.BadgerDir)
	default:
		return nil, fmt.Errorf("unknown blob backend: %q", cfg.BlobBackend)
	}
}

// Close releases the database, the notifier and any closeable blob store.
func (a *App) Close() error {
	var firstErr error
	if err := a.notifier.Close(); err != nil {
		firstErr = err
	}
	if closer, ok := a.blobs.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
