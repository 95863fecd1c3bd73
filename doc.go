// Package main provides the entry point of tenantgate, the request
// authentication and tenant resolution service. It resolves API keys,
// self-issued tokens and identity provider tokens to users, binds them to
// organizations on first use and provisions a default service configuration
// for new organizations through the credential issuance service.
package main
