// Package session issues HS256 JWTs for signed-in accounts.
//
// Two purposes exist. A session token (4h by default) authorizes the admin
// API and can be refreshed while valid. A pending token (5m by default)
// proves the password step passed and is only accepted by the second-factor
// endpoints.
package session
