package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested resource does not exist (404 on
	// a slug lookup). Services translate this into an explicit nil result.
	ErrNotFound = errors.New("resource not found")

	// ErrServerOffline indicates the catalog server is unreachable
	ErrServerOffline = errors.New("catalog server is unreachable")

	// ErrAuthFailed indicates a login attempt was rejected
	ErrAuthFailed = errors.New("authentication failed")
)
