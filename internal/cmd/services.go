package cmd

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/goliatone/go-vitalpress/internal/config"
	"github.com/goliatone/go-vitalpress/internal/logging"
	"github.com/goliatone/go-vitalpress/pkg/api"
	"github.com/goliatone/go-vitalpress/pkg/cache"
)

// services is the backend stack shared by the commands.
type services struct {
	client  *api.Client
	backend api.Backend
	// cached is nil when caching is disabled.
	cached *api.CachedClient
	memory *cache.Memory

	closers []func() error
}

// newServices builds the content service client with its rate limit and
// optional cache. observer may be nil.
func newServices(ctx context.Context, c config.Config, observer api.Observer) (*services, error) {
	if c.Backend.URL == "" {
		return nil, errors.New("backend.url is not configured (set VITALPRESS_BACKEND_URL)")
	}
	opts := []api.Option{
		api.WithTimeout(c.Backend.Timeout),
		api.WithUserAgent(c.Backend.UserAgent),
		api.WithToken(c.Backend.Token),
		api.WithGenerateLimit(rate.Limit(c.Backend.GenerateRate/60), c.Backend.GenerateBurst),
		api.WithLogger(logging.API()),
	}
	if observer != nil {
		opts = append(opts, api.WithObserver(observer))
	}
	client, err := api.New(c.Backend.URL, opts...)
	if err != nil {
		return nil, err
	}
	s := &services{client: client, backend: client}

	var store cache.Cache
	switch c.Cache.Driver {
	case "memory":
		s.memory = cache.NewMemory()
		store = s.memory
	case "redis":
		redis, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			Prefix:   c.Cache.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		s.closers = append(s.closers, redis.Close)
		store = redis
	}
	if store != nil {
		s.cached = api.NewCachedClient(client, store, c.Cache.TTL, logging.Cache())
		s.backend = s.cached
	}
	return s, nil
}

func (s *services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}
