// Package environment propagates the application environment (development,
// staging, production) through context.Context, HTTP requests and logs.
//
// Parse normalizes APP_ENV values, Middleware stamps every request context and
// LoggerExtractor exposes the value to the logger package:
//
//	env := environment.Parse(os.Getenv("APP_ENV"))
//	handler = environment.Middleware(env)(handler)
package environment
