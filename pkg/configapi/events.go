package configapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrymomot/tenantsync/pkg/configsync"
	"github.com/dmitrymomot/tenantsync/pkg/logger"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

// events streams the tenant's sync session as server-sent events. The
// stream opens with the current snapshot and ends when the client goes
// away or the session is destroyed. The session is held for the lifetime
// of the stream; the last stream of a tenant to end destroys it.
func (h *edge) events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := tenant.IDFromContext(ctx)

	s, release, err := h.registry.Acquire(ctx, id)
	if err != nil {
		h.fetchFailed(w, r, err)
		return
	}
	defer release()
	sub := s.Subscribe(ctx)
	defer func() { _ = sub.Close() }()

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if doc, err := s.Snapshot(); err == nil {
		initial := configsync.Event{
			Kind:        configsync.EventSnapshot,
			TenantID:    id,
			Snapshot:    doc,
			Fingerprint: doc.Fingerprint(),
			At:          s.LastFetchedAt().UTC(),
		}
		if err := writeEvent(w, initial); err != nil {
			return
		}
	}
	if err := rc.Flush(); err != nil {
		h.opts.log.WarnContext(ctx, "event stream cannot flush", logger.Error(err))
		return
	}

	keepAlive := time.NewTicker(h.opts.keepAlive)
	defer keepAlive.Stop()

	msgs := sub.Receive(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if err := writeEvent(w, msg.Data); err != nil {
				return
			}
			if msg.Data.Kind == configsync.EventDestroyed {
				_ = rc.Flush()
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w io.Writer, ev configsync.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
	return err
}
