package analyzer

import "errors"

var (
	// ErrResolverRequired is returned when no date resolver is supplied.
	ErrResolverRequired = errors.New("date resolver is required")

	// ErrCatalogRequired is returned when no catalog provider is supplied.
	ErrCatalogRequired = errors.New("catalog provider is required")

	// ErrCatalogUnavailable wraps failures to read the live catalog.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrInvalidTieBreak is returned for an unknown TieBreak value.
	ErrInvalidTieBreak = errors.New("invalid category tie-break")

	// ErrInvalidMatchMode is returned for an unknown MatchMode value.
	ErrInvalidMatchMode = errors.New("invalid match mode")
)
