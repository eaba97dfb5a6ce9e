package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/taxa/internal/cache"
	"github.com/mesh-intelligence/taxa/internal/client"
	"github.com/mesh-intelligence/taxa/internal/sqlite"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

// openStore builds the store named by cfg.Backend, wrapped in the Redis cache
// when cfg.RedisURL is set. The returned close function releases everything
// openStore acquired.
func openStore(ctx context.Context, cfg types.Config, logger *log.Logger) (types.Store, func() error, error) {
	var (
		store   types.Store
		closers []func() error
	)
	switch cfg.Backend {
	case types.BackendSQLite:
		b := sqlite.NewBackend()
		if err := b.Attach(cfg); err != nil {
			return nil, nil, systemErr("attach backend: %w", err)
		}
		store = b
		closers = append(closers, b.Detach)
	case types.BackendHTTP:
		c, err := client.New(cfg.ServerURL)
		if err != nil {
			return nil, nil, err
		}
		store = c
	default:
		return nil, nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Backend)
	}

	if cfg.RedisURL != "" {
		rc, err := cache.Dial(ctx, cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, continuing without cache")
		} else {
			store = cache.New(store, rc, cfg.CacheTTL)
			closers = append(closers, rc.Close)
			logger.WithField("ttl", cfg.CacheTTL).Debug("redis cache enabled")
		}
	}

	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && !errors.Is(err, redis.ErrClosed) {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return store, closeAll, nil
}
