package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/R3E-Network/stablecoin_layer/internal/config"
	"github.com/R3E-Network/stablecoin_layer/internal/logging"
	"github.com/R3E-Network/stablecoin_layer/internal/snapshot"
	"github.com/R3E-Network/stablecoin_layer/internal/snapshot/migrations"
)

// backendStore is the selected snapshot backend plus the mint to open.
type backendStore struct {
	snapshot.Store
	mint  string
	close func() error
}

func (s *backendStore) Close() {
	if s.close != nil {
		_ = s.close()
	}
}

type mintLister interface {
	Mints(ctx context.Context) ([]string, error)
}

func openStore(ctx context.Context, cfg config.Config, log *logging.Logger) (*backendStore, error) {
	switch cfg.SnapshotBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store := snapshot.NewRedisStore(client)
		mint, err := resolveMint(ctx, cfg.Mint, store, log)
		if err != nil {
			client.Close()
			return nil, err
		}
		return &backendStore{Store: store, mint: mint, close: client.Close}, nil

	case config.BackendPostgres:
		db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.Apply(ctx, db.DB); err != nil {
			db.Close()
			return nil, err
		}
		store := snapshot.NewPostgresStore(db)
		mint, err := resolveMint(ctx, cfg.Mint, store, log)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &backendStore{Store: store, mint: mint, close: db.Close}, nil

	default:
		log.WithField("path", cfg.StateFile).Info("using file snapshot store")
		return &backendStore{Store: snapshot.NewFileStore(cfg.StateFile), mint: cfg.Mint}, nil
	}
}

// resolveMint picks the configured mint, or the only stored one. An empty
// result makes OpenOrCreate create a fresh token.
func resolveMint(ctx context.Context, configured string, lister mintLister, log *logging.Logger) (string, error) {
	if configured != "" {
		return configured, nil
	}
	mints, err := lister.Mints(ctx)
	if err != nil {
		return "", err
	}
	switch len(mints) {
	case 0:
		return "", nil
	case 1:
		return mints[0], nil
	default:
		log.WithField("count", len(mints)).Warn("several tokens stored; set mint in the config overlay to choose one")
		return mints[0], nil
	}
}
