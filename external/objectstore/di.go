package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/fanreel/internal/config"
	"github.com/foxseedlab/fanreel/internal/objectstore"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
)

const backendInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (objectstore.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), backendInitTimeout)
		defer cancel()

		switch cfg.ObjectStoreBackend {
		case config.ObjectStorePostgres:
			return newPostgresBackend(ctx, cfg)
		case config.ObjectStoreGCS:
			slog.Info("using gcs object store", "bucket", cfg.GCSBucket)
			return NewGCSStore(ctx, GCSConfig{
				Bucket:          cfg.GCSBucket,
				CredentialsJSON: cfg.GoogleCloudCredentialsJSON,
			})
		default:
			slog.Warn("using in-memory object store; sessions are lost on restart")
			return NewMemoryStore(cfg.PublicBaseURL), nil
		}
	})
}

func newPostgresBackend(ctx context.Context, cfg *config.Config) (objectstore.Store, error) {
	p, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := RunMigration(ctx, p); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to run migration: %w", err)
	}
	slog.Info("using postgres object store")
	return NewPostgresStore(p, cfg.PublicBaseURL), nil
}
