// Package taskapi implements a multi-user task tracking REST service built
// around a stateless, token based authentication pipeline.
//
// The pipeline has three stages:
//
//   - credential exchange: POST /api/auth/login verifies a username/password
//     pair against the users store and issues a signed, time bounded JWT.
//   - request authentication: the authware middleware runs once per request,
//     extracts a bearer token, validates it, and attaches the caller's claims
//     and identity to the request context. Requests without a token proceed
//     as anonymous; route level guards decide whether that is acceptable.
//   - authorization: explicit guard predicates (role match, resource owner
//     match) evaluated before the handler body runs.
//
// Tokens are self contained; there is no server side session record and no
// revocation list. The signing secret is loaded once at startup and is
// read-only for the process lifetime.
package taskapi
