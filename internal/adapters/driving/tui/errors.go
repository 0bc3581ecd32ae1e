package tui

import "errors"

// ErrMissingResults is returned when no callback result channel is provided.
var ErrMissingResults = errors.New("tui: callback results channel is required")

// ErrResultsClosed is reported when the callback server stops before
// publishing a result.
var ErrResultsClosed = errors.New("tui: callback server stopped")
