package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrPreassignedID = errors.New("record already carries an id")
	ErrNoModel       = errors.New("model handle not configured")
)
