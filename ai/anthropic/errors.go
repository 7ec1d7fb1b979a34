package anthropic

import "errors"

// ErrWrongBackend is returned when the config does not select the anthropic backend.
var ErrWrongBackend = errors.New("config backend is not anthropic")
