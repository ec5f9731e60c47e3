package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantsync/pkg/config"
	"github.com/dmitrymomot/tenantsync/pkg/configsync"
	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/siteconfig"
)

func newWatchCmd() *cobra.Command {
	var adopt bool

	cmd := &cobra.Command{
		Use:   "watch <tenant>",
		Short: "Follow a tenant's configuration",
		Long: `Open a config sync session against the config service and log every
snapshot, update and error until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), args[0], adopt)
		},
	}
	cmd.Flags().BoolVar(&adopt, "adopt", false, "adopt updates as soon as they are detected")
	return cmd
}

func runWatch(ctx context.Context, tenantID string, adopt bool) error {
	app, log, err := bootstrap()
	if err != nil {
		return err
	}
	var (
		fetchCfg siteconfig.Config
		syncCfg  configsync.Config
	)
	if err := config.Load(&fetchCfg); err != nil {
		return err
	}
	if err := config.Load(&syncCfg); err != nil {
		return err
	}

	cache := siteconfig.NewCache(fetchCfg.CacheWindow)
	defer cache.Close()
	fetcher := siteconfig.NewFetcher(
		siteconfig.NewClientFromConfig(fetchCfg, siteconfig.WithUserAgent(app.Name)),
		cache, siteconfig.WithLogger(log))

	opts := append(syncCfg.SessionOptions(), configsync.WithLogger(log))
	s, err := configsync.Open(ctx, fetcher, tenantID, opts...)
	if err != nil {
		return err
	}
	defer s.Destroy()

	snap, _ := s.Snapshot()
	log.InfoContext(ctx, "watching tenant config",
		logger.TenantID(s.TenantID()),
		logger.Fingerprint(string(snap.Fingerprint())),
		logger.State(s.State().Name()))

	for msg := range s.Subscribe(ctx).Receive(ctx) {
		ev := msg.Data
		attrs := []any{logger.TenantID(ev.TenantID), logger.Event(string(ev.Kind))}
		if ev.Fingerprint != "" {
			attrs = append(attrs, logger.Fingerprint(string(ev.Fingerprint)))
		}

		switch ev.Kind {
		case configsync.EventError:
			log.WarnContext(ctx, "config sync error", append(attrs, slog.String("error", ev.Error))...)
		case configsync.EventUpdateAvailable:
			log.InfoContext(ctx, "config update available", attrs...)
			if adopt {
				if _, err := s.Adopt(ctx); err != nil && !errors.Is(err, configsync.ErrDestroyed) {
					log.WarnContext(ctx, "adopt failed", logger.Error(err))
				}
			}
		default:
			log.InfoContext(ctx, "config sync event", attrs...)
		}
	}
	return nil
}
