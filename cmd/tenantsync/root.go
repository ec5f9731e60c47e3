package main

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantsync/pkg/config"
	"github.com/dmitrymomot/tenantsync/pkg/environment"
	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/requestid"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

// App holds process-wide settings.
type App struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Name string `env:"APP_NAME" envDefault:"tenantsync"`
}

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:          "tenantsync",
		Short:        "Tenant resolution and per-tenant config sync",
		Long:         `Resolve storefront tenants from requests and keep their configuration in sync with the config service.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if len(envFiles) == 0 {
				return nil
			}
			return config.LoadEnv(envFiles...)
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment")

	root.AddCommand(
		newServeCmd(),
		newServeConfigCmd(),
		newWatchCmd(),
		newResolveCmd(),
	)
	return root
}

// bootstrap loads the app settings and builds the process logger.
func bootstrap() (App, *slog.Logger, error) {
	var app App
	if err := config.Load(&app); err != nil {
		return app, nil, err
	}
	log := logger.New(
		logger.WithEnvironment(app.Env, app.Name),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenant.LoggerExtractor(),
			environment.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)
	return app, log, nil
}

func newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
