package main

import (
	"context"
	"fmt"

	"github.com/maltedev/brain-product-parser/internal/browser"
	"github.com/maltedev/brain-product-parser/internal/config"
	"github.com/maltedev/brain-product-parser/internal/database"
	"github.com/maltedev/brain-product-parser/internal/events"
	"github.com/maltedev/brain-product-parser/internal/extract"
	"github.com/maltedev/brain-product-parser/internal/pacing"
	"github.com/maltedev/brain-product-parser/internal/retry"
	"github.com/maltedev/brain-product-parser/internal/search"
	"github.com/redis/go-redis/v9"
)

func browserOptions(cfg *config.Config) *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = cfg.Browser.Headless
	opts.SlowMo = cfg.Browser.SlowMo
	opts.Timeout = cfg.Browser.Timeout
	opts.UserAgent = cfg.Browser.UserAgent
	opts.ViewportWidth = cfg.Browser.ViewportWidth
	opts.ViewportHeight = cfg.Browser.ViewportHeight
	opts.AcceptLanguage = cfg.Browser.AcceptLanguage
	opts.TimezoneID = cfg.Browser.TimezoneID
	opts.Locale = cfg.Browser.Locale
	opts.ProxyServer = cfg.Browser.ProxyServer
	return opts
}

func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Scraper.MaxAttempts,
		Backoff:     pacing.Between(cfg.Scraper.BackoffMin, cfg.Scraper.BackoffMax),
	}
}

func searchOptions(cfg *config.Config) search.Options {
	opts := search.DefaultOptions()
	opts.NavigationTimeout = cfg.Scraper.NavigationTimeout
	opts.InputTimeout = cfg.Scraper.ElementTimeout
	opts.ResultTimeout = cfg.Scraper.ResultTimeout
	return opts
}

func extractOptions(cfg *config.Config) extract.Options {
	opts := extract.DefaultOptions()
	opts.ElementTimeout = cfg.Scraper.ElementTimeout
	return opts
}

func connectDB(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.New(ctx, database.Config{
		DSN:      cfg.Database.DSN(),
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// sinks opens the optional database and event stream for a run. Either may
// be nil when disabled or unreachable; the returned cleanup is always safe
// to call.
func (a *app) sinks(ctx context.Context) (*database.DB, *events.Publisher, func()) {
	var (
		db        *database.DB
		publisher *events.Publisher
		closers   []func()
	)

	if a.cfg.Database.Enabled {
		conn, err := connectDB(ctx, a.cfg)
		if err != nil {
			a.logger.Error("database unavailable, record will not be stored", "error", err)
		} else if err := conn.EnsureSchema(ctx); err != nil {
			a.logger.Error("failed to ensure schema, record will not be stored", "error", err)
			conn.Close()
		} else {
			db = conn
			closers = append(closers, conn.Close)
		}
	}

	if a.cfg.Redis.Enabled {
		client, err := connectRedis(ctx, a.cfg)
		if err != nil {
			a.logger.Error("redis unavailable, events will not be published", "error", err)
		} else {
			publisher = events.NewPublisher(client, a.cfg.Redis.Stream, a.logger)
			closers = append(closers, func() {
				if err := client.Close(); err != nil {
					a.logger.Error("failed to close redis client", "error", err)
				}
			})
		}
	}

	return db, publisher, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}
