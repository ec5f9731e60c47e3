package configsync

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tenantsync/pkg/logger"
)

// UpdateNotice is the payload the config service publishes when a tenant's
// configuration changes.
type UpdateNotice struct {
	TenantID  string `json:"tenantId"`
	Version   int64  `json:"version"`
	UpdatedAt string `json:"updatedAt"`
	Event     string `json:"event"`
}

// Listen forwards update notices from a Redis pub/sub channel to Notify
// until ctx is done or msgs is closed. Pass the channel of
// client.Subscribe(ctx, cfg.UpdatesChannel).
func (r *Registry) Listen(ctx context.Context, msgs <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			r.handleNotice(ctx, msg)
		}
	}
}

func (r *Registry) handleNotice(ctx context.Context, msg *redis.Message) {
	var notice UpdateNotice
	if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil || notice.TenantID == "" {
		r.log.WarnContext(ctx, "ignoring malformed update notice",
			logger.Source(msg.Channel), logger.Error(err))
		return
	}

	stale, err := r.Notify(ctx, notice.TenantID)
	if err != nil {
		r.log.WarnContext(ctx, "update notice check failed",
			logger.TenantID(notice.TenantID), logger.Error(err))
		return
	}
	r.log.DebugContext(ctx, "update notice handled",
		logger.TenantID(notice.TenantID), slog.Bool("stale", stale))
}
