package postgres

import "errors"

// ErrDSNRequired is returned when no connection string is configured.
var ErrDSNRequired = errors.New("postgres DSN is required")
