// Package requestid tags every HTTP request with a correlation id.
//
// Middleware reads X-Request-ID (or generates a UUID), Transport forwards it
// on outgoing calls such as config-service fetches, and LoggerExtractor adds
// it to log records.
package requestid
