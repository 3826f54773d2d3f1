package identity

import "errors"

var (
	ErrUnauthorized        = errors.New("no valid owner session")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)
