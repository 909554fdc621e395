package gateway

import "errors"

var (
	// ErrPermissionDenied is returned when the platform rejects a privileged
	// action. The operation is abandoned and never retried.
	ErrPermissionDenied = errors.New("gateway: permission denied")

	// ErrNotFound is returned when a message, channel, role or user no
	// longer exists on the platform.
	ErrNotFound = errors.New("gateway: not found")
)
