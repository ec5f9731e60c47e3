package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantsync/migrations"
	"github.com/dmitrymomot/tenantsync/pkg/config"
	"github.com/dmitrymomot/tenantsync/pkg/configapi"
	"github.com/dmitrymomot/tenantsync/pkg/environment"
	"github.com/dmitrymomot/tenantsync/pkg/httpserver"
	"github.com/dmitrymomot/tenantsync/pkg/pg"
	"github.com/dmitrymomot/tenantsync/pkg/redis"
	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
)

type serveConfigFlags struct {
	source  string
	dir     string
	addr    string
	migrate bool
}

func newServeConfigCmd() *cobra.Command {
	var flags serveConfigFlags

	cmd := &cobra.Command{
		Use:   "serve-config",
		Short: "Run a config service over local documents",
		Long: `Serve the config service read contract (GET /api/config/{tenant} and
/version) from a directory of YAML/JSON documents or from Postgres.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeConfig(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.source, "source", "file", "document source: file or postgres")
	cmd.Flags().StringVar(&flags.dir, "dir", "", "document directory (defaults to CONFIG_SOURCE_DIR)")
	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (defaults to HTTP_ADDR)")
	cmd.Flags().BoolVar(&flags.migrate, "migrate", true, "apply migrations before serving from postgres")
	return cmd
}

func runServeConfig(ctx context.Context, flags serveConfigFlags) error {
	app, log, err := bootstrap()
	if err != nil {
		return err
	}

	var (
		fetchCfg siteconfig.Config
		httpCfg  httpserver.Config
		redisCfg redis.Config
	)
	if err := config.Load(&fetchCfg); err != nil {
		return err
	}
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	if err := config.Load(&redisCfg); err != nil {
		return err
	}
	if flags.addr != "" {
		httpCfg.Addr = flags.addr
	}

	var (
		src    siteconfig.Source
		checks []httpserver.Check
		name   string
	)
	switch flags.source {
	case "file":
		dir := flags.dir
		if dir == "" {
			dir = fetchCfg.SourceDir
		}
		src, name = siteconfig.NewFileSource(dir), "file"
		log.InfoContext(ctx, "serving documents from directory", slog.String("dir", dir))

	case "postgres":
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		if flags.migrate {
			if err := pg.Migrate(ctx, pool, migrations.FS, pgCfg, log); err != nil {
				return err
			}
		}
		src, name = siteconfig.NewPostgresSource(pool), "database"
		checks = append(checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})

	default:
		return fmt.Errorf("unknown source %q: use file or postgres", flags.source)
	}

	if redisCfg.Enabled() {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		src = siteconfig.NewRedisSource(client, src,
			siteconfig.WithRedisTTL(fetchCfg.RedisTTL),
			siteconfig.WithRedisLogger(log))
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	}

	reg := newMetricsRegistry()
	handler := configapi.NewServiceRouter(src,
		configapi.WithLogger(log),
		configapi.WithEnvironment(environment.Parse(app.Env)),
		configapi.WithSourceName(name),
		configapi.WithGatherer(reg),
		configapi.WithHealthChecks(checks...),
	)
	return httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log)).Run(ctx, handler)
}
