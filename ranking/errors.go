package ranking

import "errors"

// ErrInvalidWeights is returned for negative boost weights.
var ErrInvalidWeights = errors.New("invalid ranking weights")
