package tenant

// Config holds the identification settings loaded from the environment.
type Config struct {
	PrimaryHeader string `env:"TENANT_PRIMARY_HEADER" envDefault:"X-Tenant-ID"`
	LegacyHeader  string `env:"TENANT_LEGACY_HEADER" envDefault:"X-Tenant"`
	PathMarker    string `env:"TENANT_PATH_MARKER" envDefault:"market"`
}

// NewIdentifierFromConfig builds an Identifier from cfg. Empty fields keep
// the defaults.
func NewIdentifierFromConfig(cfg Config, opts ...IdentifierOption) *Identifier {
	base := []IdentifierOption{
		WithPrimaryHeader(cfg.PrimaryHeader),
		WithLegacyHeader(cfg.LegacyHeader),
		WithPathMarker(cfg.PathMarker),
	}
	return NewIdentifier(append(base, opts...)...)
}
