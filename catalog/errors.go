package catalog

import "errors"

var (
	// ErrStoreRequired is returned when no catalog store is supplied.
	ErrStoreRequired = errors.New("catalog store is required")

	// ErrInvalidTTL is returned for a negative cache TTL.
	ErrInvalidTTL = errors.New("invalid catalog TTL")
)
