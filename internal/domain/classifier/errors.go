package classifier

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidModel = errors.New("invalid classifier model")
	ErrLoadModel    = errors.New("load classifier model failed")
	ErrInvalidInput = errors.New("invalid classifier input")
)
