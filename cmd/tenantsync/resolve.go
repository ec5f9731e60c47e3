package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantsync/pkg/config"
	"github.com/dmitrymomot/tenantsync/pkg/tenant"
)

type resolveFlags struct {
	host    string
	path    string
	headers []string
}

// resolveResult is what resolve prints.
type resolveResult struct {
	tenant.Context
	Canonical string `json:"canonical,omitempty"`
	Valid     bool   `json:"valid"`
}

func newResolveCmd() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show which tenant a request resolves to",
		Example: `  tenantsync resolve --host shop1.example.com
  tenantsync resolve --path /market/shop7/payments
  tenantsync resolve --header "X-Tenant-ID: acme"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg tenant.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}
			r, err := flags.request()
			if err != nil {
				return err
			}

			tc := tenant.NewIdentifierFromConfig(cfg).Identify(r)
			out := resolveResult{Context: tc}
			if id, err := tenant.Canonical(tc.ID); err == nil {
				out.Canonical, out.Valid = id, true
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&flags.host, "host", "", "Host header")
	cmd.Flags().StringVar(&flags.path, "path", "/", "request path")
	cmd.Flags().StringArrayVar(&flags.headers, "header", nil, `extra header as "Name: value" (repeatable)`)
	return cmd
}

func (f resolveFlags) request() (*http.Request, error) {
	path := f.path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.ParseRequestURI(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", f.path, err)
	}
	r := &http.Request{
		Method: http.MethodGet,
		URL:    u,
		Host:   f.host,
		Header: http.Header{},
	}

	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q: want \"Name: value\"", h)
		}
		r.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return r, nil
}
