package plan

import "errors"

var (
	ErrUnknownTier              = errors.New("unknown plan tier")
	ErrInvalidPlanConfiguration = errors.New("invalid plan configuration")
	ErrFailedToLoadCatalog      = errors.New("failed to load plan catalog")
)
