// Package auth implements the OAuth side of login: provider client
// registrations, the authorization-code exchange with bounded timeouts,
// and the normalization of heterogeneous provider claims into one
// Identity shape consumed by the account reconciler.
package auth
