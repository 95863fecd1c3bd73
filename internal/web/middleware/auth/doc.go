// Package auth provides the request authentication middleware of the web application.
//
// The middleware extracts Authorization and X-API-Key headers into
// auth.Credentials, hands them to the resolver and stores the resolved user in
// fiber.Locals. Failures are returned to the app's error handler, which renders
// them with the status of their kind.
//
// Usage:
//
//	app.Get(path, authmiddleware.RequireUser(resolver), handler)
//	user := authmiddleware.CurrentUser(c)
package auth
