package shared

import "errors"

var (
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPermissionDenied indicates the principal may not perform the action.
	ErrPermissionDenied = errors.New("permission denied")
)
