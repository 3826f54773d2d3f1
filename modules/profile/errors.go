package profile

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrStoreFailed     = errors.New("profile store operation failed")
)
