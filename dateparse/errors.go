package dateparse

import "errors"

// ErrUnresolved indicates a date phrase no rule could resolve. Callers
// treat it as a soft failure and continue without a date constraint.
var ErrUnresolved = errors.New("unresolved date phrase")
