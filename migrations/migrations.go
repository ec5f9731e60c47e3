// Package migrations embeds the goose migrations for the tenant_configs table.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
