package main

import (
	"context"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantsync/pkg/config"
	"github.com/dmitrymomot/tenantsync/pkg/configapi"
	"github.com/dmitrymomot/tenantsync/pkg/configsync"
	"github.com/dmitrymomot/tenantsync/pkg/environment"
	"github.com/dmitrymomot/tenantsync/pkg/httpserver"
	"github.com/dmitrymomot/tenantsync/pkg/redis"
	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront edge",
		Long: `Serve tenant-aware config endpoints backed by the remote config service,
with an optional Redis tier in front of it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

type serveConfig struct {
	Tenant tenant.Config
	Fetch  siteconfig.Config
	Sync   configsync.Config
	HTTP   httpserver.Config
	Redis  redis.Config
}

func loadServeConfig() (serveConfig, error) {
	var cfg serveConfig
	for _, load := range []func() error{
		func() error { return config.Load(&cfg.Tenant) },
		func() error { return config.Load(&cfg.Fetch) },
		func() error { return config.Load(&cfg.Sync) },
		func() error { return config.Load(&cfg.HTTP) },
		func() error { return config.Load(&cfg.Redis) },
	} {
		if err := load(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func runServe(ctx context.Context) error {
	app, log, err := bootstrap()
	if err != nil {
		return err
	}
	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}
	reg := newMetricsRegistry()

	var (
		src     siteconfig.Source = siteconfig.NewClientFromConfig(cfg.Fetch, siteconfig.WithUserAgent(app.Name))
		checks  []httpserver.Check
		notices <-chan *goredis.Message
	)
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		src = siteconfig.NewRedisSource(client, src,
			siteconfig.WithRedisTTL(cfg.Fetch.RedisTTL),
			siteconfig.WithRedisLogger(log))
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})

		pubsub := client.Subscribe(ctx, cfg.Sync.UpdatesChannel)
		defer func() { _ = pubsub.Close() }()
		notices = pubsub.Channel()
	}

	cache := siteconfig.NewCache(cfg.Fetch.CacheWindow)
	defer cache.Close()
	fetcher := siteconfig.NewFetcher(src, cache,
		siteconfig.WithLogger(log),
		siteconfig.WithMetrics(siteconfig.NewMetrics(reg)))

	registry := configsync.NewRegistryFromConfig(cfg.Sync, fetcher,
		configsync.WithRegistryLogger(log),
		configsync.WithRegisterer(reg))
	defer registry.Close()
	if notices != nil {
		go registry.Listen(ctx, notices)
	}

	handler := configapi.NewEdgeRouter(tenant.NewIdentifierFromConfig(cfg.Tenant), fetcher, registry,
		configapi.WithLogger(log),
		configapi.WithEnvironment(environment.Parse(app.Env)),
		configapi.WithGatherer(reg),
		configapi.WithHealthChecks(checks...),
	)

	log.InfoContext(ctx, "starting edge",
		slog.String("config_service", cfg.Fetch.ServiceURL),
		slog.Bool("redis", cfg.Redis.Enabled()))
	return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, handler)
}
