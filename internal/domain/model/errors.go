package model

import "errors"

// ErrMalformedInput marks a borrower record that cannot be scored.
var ErrMalformedInput = errors.New("malformed input")
