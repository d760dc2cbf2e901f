package router

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/container"
	"github.com/oksasatya/go-account-service/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/go-account-service/internal/infrastructure/postgres"
)

// OpenStore connects the configured user store and registers it in the container.
// Postgres schemas are migrated before returning. The returned func releases the connection.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnLifetime: cfg.DBMaxConnLife,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		container.SetPGPool(pool)
		return pool.Close, nil

	case config.StoreMongo:
		client, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		container.SetMongoDB(db)
		return func() { _ = client.Disconnect(context.Background()) }, nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownStore, cfg.StoreDriver)
}
