package quota

import "errors"

var (
	ErrNoCounterRegistered = errors.New("no usage counter registered for resource")
	ErrTierResolveFailed   = errors.New("failed to resolve plan tier for owner")

	// ErrUsageUnavailable means the resource store count could not be
	// obtained. Checks fail closed on it: no creation is allowed until the
	// store answers.
	ErrUsageUnavailable = errors.New("resource usage count unavailable")
)
