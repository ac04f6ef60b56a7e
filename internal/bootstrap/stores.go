// internal/bootstrap/stores.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"msme-lender-platform/internal/api"
	"msme-lender-platform/internal/common/config"
	"msme-lender-platform/internal/common/database"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/store"
	"msme-lender-platform/internal/store/cache"
	"msme-lender-platform/internal/store/memory"
	mongostore "msme-lender-platform/internal/store/mongo"
	"msme-lender-platform/internal/store/postgres"
)

// Stores is the persistence layer selected by database.driver.
type Stores struct {
	Driver       string
	Lenders      store.LenderStore
	Applications store.ApplicationStore
	Checks       map[string]api.ReadyCheck

	closers []func(context.Context) error
}

// Close releases every connection in reverse order of opening.
func (s *Stores) Close(ctx context.Context) error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// OpenStores connects the configured driver, runs migrations for postgres
// and puts the Redis lender cache in front when it is enabled.
func OpenStores(ctx context.Context, cfg *config.Config, log logger.Logger, retry Retry) (*Stores, error) {
	s := &Stores{Driver: cfg.Database.Driver, Checks: map[string]api.ReadyCheck{}}

	var err error
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		err = s.openPostgres(ctx, cfg.Database.Postgres, log, retry)
	case config.DriverMongo:
		err = s.openMongo(ctx, cfg.Database.Mongo, log, retry)
	case config.DriverMemory:
		s.Lenders = memory.NewLenderStore()
		s.Applications = memory.NewApplicationStore()
		log.Warn("using in-memory store, data is lost on restart", nil)
	default:
		err = fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	if cfg.Database.Redis.Enabled {
		if err := s.openCache(ctx, cfg, log, retry); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
	}
	return s, nil
}

func (s *Stores) openPostgres(ctx context.Context, cfg config.PostgresConfig, log logger.Logger, retry Retry) error {
	var pg *database.PostgresClient
	err := retryWithBackoff(ctx, retry, log, "PostgreSQL connection", func() error {
		var err error
		pg, err = database.NewPostgres(cfg)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.closers = append(s.closers, func(context.Context) error { return pg.Close() })
	log.Info("PostgreSQL connected successfully", map[string]interface{}{"host": cfg.Host, "database": cfg.Database})

	if cfg.MigrationsOn {
		if err := pg.RunMigrations(); err != nil {
			return err
		}
		log.Info("PostgreSQL migrations applied", nil)
	}

	s.Lenders = postgres.NewLenderStore(pg.GetDB())
	s.Applications = postgres.NewApplicationStore(pg.GetDB())
	s.Checks["postgres"] = pg.Ping
	return nil
}

func (s *Stores) openMongo(ctx context.Context, cfg config.MongoConfig, log logger.Logger, retry Retry) error {
	var mc *database.MongoClient
	err := retryWithBackoff(ctx, retry, log, "MongoDB connection", func() error {
		var err error
		mc, err = database.NewMongo(ctx, cfg, log)
		return err
	})
	if err != nil {
		return err
	}
	s.closers = append(s.closers, mc.Close)

	s.Lenders = mongostore.NewLenderStore(mc.Database)
	s.Applications = mongostore.NewApplicationStore(mc.Database)
	s.Checks["mongo"] = func(ctx context.Context) error { return mc.Client.Ping(ctx, nil) }
	return nil
}

func (s *Stores) openCache(ctx context.Context, cfg *config.Config, log logger.Logger, retry Retry) error {
	var rc *database.RedisClient
	err := retryWithBackoff(ctx, retry, log, "Redis connection", func() error {
		var err error
		rc, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.closers = append(s.closers, func(context.Context) error { return rc.Close() })
	log.Info("Redis connected successfully", map[string]interface{}{"address": cfg.Database.Redis.Address})

	ttl := time.Duration(cfg.Cache.LenderTTL) * time.Second
	s.Lenders = cache.NewLenderStore(s.Lenders, rc.GetClient(), ttl, cfg.Cache.KeyPrefix, log)
	s.Checks["redis"] = rc.Ping
	return nil
}
