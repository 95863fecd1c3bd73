// Package auth resolves inbound credentials to a local user bound to an organization.
//
// # Resolution
//
// Resolver.Resolve takes transport independent Credentials and picks one of
// three paths, first match wins:
//   - an API key: the key's owner is returned with the key's organization selected
//   - self-hosted mode: the bearer token itself is the user's provider id and
//     "org_<token>" the organization's provider id
//   - hosted mode: the bearer is validated by the identity provider, whose
//     selected team becomes the organization
//
// Failures are *Error values with one of the kinds Unauthenticated, BadRequest,
// Forbidden or Internal. Transports map them with Error.Status.
//
// # Tenant binding
//
// The TenantBinder gets or creates the organization, adds the membership and
// switches the user's selected organization. A freshly created organization
// triggers the Provisioner, which asks the issuance service for a service key and
// fills an empty user configuration with it. Only the request that created the
// organization provisions, so racing first requests do not issue duplicate keys.
//
// # Decorators
//
// ResolveSuperuser rejects non superusers with Forbidden, ResolveOptional turns
// Unauthenticated into a nil user, and ResolveWebSocket closes the connection with
// policy violation 1008 before returning a failure.
//
// Example usage:
//
//	provisioner := auth.NewProvisioner(issuer, auth.ProvisionerConfig{Mode: auth.ModeHosted, SecretKey: secret})
//	binder := auth.NewTenantBinder(store, provisioner)
//	resolver := auth.NewResolver(store, idp, binder, auth.ModeHosted)
//
//	user, err := resolver.Resolve(ctx, auth.Credentials{Authorization: header})
package auth
