package incidents

import "errors"

// Service errors.
var (
	ErrNotFound        = errors.New("incident not found")
	ErrInvalidSeverity = errors.New("invalid severity")
	ErrInvalidStatus   = errors.New("invalid status")
)
