package siteconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dmitrymomot/tenantsync/pkg/requestid"
)

const (
	// DefaultTimeout bounds one round trip to the config service.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 4 << 20
)

// ConfigEnvelope is the body of GET /api/config/{id}.
type ConfigEnvelope struct {
	Success     bool          `json:"success"`
	Data        *TenantConfig `json:"data,omitempty"`
	Source      string        `json:"source,omitempty"`
	Fingerprint Fingerprint   `json:"fingerprint,omitempty"`
	Error       string        `json:"error,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// VersionEnvelope is the body of GET /api/config/{id}/version.
type VersionEnvelope struct {
	Success     bool        `json:"success"`
	Version     int64       `json:"version"`
	UpdatedAt   *time.Time  `json:"updatedAt"`
	Fingerprint Fingerprint `json:"fingerprint,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Client reads tenant configuration from the remote config service. Every
// call is a single round trip without retries: 404 maps to ErrNotFound and
// everything else that is not a well-formed success maps to ErrTransient.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	userAgent string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) { cl.userAgent = ua }
}

// NewClient creates a client for the config service at baseURL. The default
// transport is traced with otelhttp and forwards the request id.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   DefaultTimeout,
		userAgent: "tenantsync",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{
			Timeout:   c.timeout,
			Transport: otelhttp.NewTransport(requestid.Transport(http.DefaultTransport)),
		}
	}
	return c
}

func (c *Client) Config(ctx context.Context, id string) (*TenantConfig, error) {
	var env ConfigEnvelope
	if err := c.get(ctx, "/api/config/"+url.PathEscape(id), &env); err != nil {
		return nil, err
	}
	if !env.Success || env.Data == nil {
		return nil, fmt.Errorf("%w: malformed config envelope for %q: %s", ErrTransient, id, env.Error)
	}
	if env.Fingerprint != "" {
		env.Data.setFingerprint(env.Fingerprint)
	}
	return env.Data, nil
}

func (c *Client) Version(ctx context.Context, id string) (VersionInfo, error) {
	var env VersionEnvelope
	if err := c.get(ctx, "/api/config/"+url.PathEscape(id)+"/version", &env); err != nil {
		return VersionInfo{}, err
	}
	if !env.Success {
		return VersionInfo{}, fmt.Errorf("%w: malformed version envelope for %q: %s", ErrTransient, id, env.Error)
	}

	info := VersionInfo{Version: env.Version, Fingerprint: env.Fingerprint}
	if env.UpdatedAt != nil {
		info.UpdatedAt = *env.UpdatedAt
	}
	if info.Fingerprint == "" {
		info.Fingerprint = VersionFingerprint(info.Version, info.UpdatedAt)
	}
	return info, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrTransient, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: unexpected status %d from %s", ErrTransient, resp.StatusCode, path)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrTransient, path, err)
	}
	return nil
}
