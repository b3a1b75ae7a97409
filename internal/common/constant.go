// Package common contains shared constants and sentinel errors used across
// GophJournal components.
package common

// Role names assigned by the credential policy.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// AuthorizationHeaderName carries the bearer access token on HTTP requests.
const AuthorizationHeaderName = "Authorization"
