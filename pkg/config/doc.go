// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv (optional .env files) and
// github.com/caarlos0/env/v11 (struct tag parsing). Every package that needs
// settings declares its own struct with `env` tags, and the binary loads each
// one through Load. Parsed values are cached per type, so repeated calls are
// cheap and consistent:
//
//	var cfg configsync.Config
//	config.MustLoad(&cfg)
//
// ResetCache clears the cache between tests.
package config
