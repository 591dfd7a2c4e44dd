package main

import (
	"context"
	"fmt"

	"catalogapi/internal/config"
	"catalogapi/internal/database"
	"catalogapi/internal/database/migration"
	"catalogapi/internal/repository"
	"catalogapi/internal/repository/mongodb"
	"catalogapi/internal/repository/postgres"
	"catalogapi/internal/storage"
)

// backend is the opened record store selected by STORE_DRIVER.
type backend struct {
	repo    repository.ProductRepository
	ping    func(context.Context) error
	migrate func(context.Context) error
	close   func(context.Context) error
}

func openBackend(ctx context.Context, cfg *config.AppConfig) (*backend, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		// Initialize PostgreSQL connection (with pooling via database/sql)
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &backend{
			repo: postgres.NewProductPostgres(db),
			ping: db.PingContext,
			migrate: func(ctx context.Context) error {
				return migration.EnsureMigrated(ctx, db, cfg.Database.Host)
			},
			close: func(context.Context) error { return db.Close() },
		}, nil

	case config.StoreDriverMongo:
		db, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		return &backend{
			repo: mongodb.NewProductMongo(db),
			ping: func(ctx context.Context) error { return db.Client().Ping(ctx, nil) },
			migrate: func(ctx context.Context) error {
				return migration.EnsureIndexes(ctx, db.Collection(mongodb.CollectionName))
			},
			close: db.Client().Disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func newMediaStore(cfg *config.AppConfig) (storage.MediaStore, error) {
	local := storage.NewLocalStore(storage.LocalConfig{
		Root:      cfg.Media.Root,
		Dir:       cfg.Media.Dir,
		URLPrefix: cfg.Media.URLPrefix,
	})

	switch cfg.Media.Storage {
	case config.MediaStorageLocal:
		return local, nil
	case config.MediaStorageRemote:
		// Initialize reusable S3-compatible object storage client (MinIO-supported)
		objects, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("initialize object storage: %w", err)
		}
		return storage.NewRemoteStore(objects, cfg.Media.RemoteFolder, local), nil
	default:
		return nil, fmt.Errorf("unsupported MEDIA_STORAGE %q", cfg.Media.Storage)
	}
}
