package ai

import "errors"

var (
	// ErrMalformedResponse is returned when a model reply is not the
	// expected JSON object.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrEmptyResponse is returned when a model returns no choices.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid ai config")
)
