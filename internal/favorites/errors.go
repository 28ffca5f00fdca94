package favorites

import "errors"

var (
	// ErrNotInitialized is returned by operations called before Init.
	ErrNotInitialized = errors.New("favorites store not initialized")

	// ErrInvalidArgument is returned for empty identifiers or a nil import list.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrLimitExceeded is returned when adding would exceed MaxFavorites.
	ErrLimitExceeded = errors.New("favorites limit reached")
)
