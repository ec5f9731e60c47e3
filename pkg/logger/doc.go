// Package logger builds context-aware slog loggers.
//
// New applies functional options (format, level, static attributes) and runs
// the registered ContextExtractor callbacks on every record. The request id, tenant id and environment
// packages each expose an extractor, so a request-scoped log line carries
// those values without threading them through call sites:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "tenantsync"),
//	    logger.WithContextExtractors(
//	        requestid.LoggerExtractor(),
//	        tenant.LoggerExtractor(),
//	    ),
//	)
//
// Attribute helpers in attr.go (TenantID, Fingerprint, State, Error) keep
// attribute keys consistent. Helpers that receive a zero value return an
// empty slog.Attr, which slog drops.
//
// Components that accept a logger default to Discard.
package logger
