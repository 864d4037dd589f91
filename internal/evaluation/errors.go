package evaluation

import "errors"

// Sentinel kinds for evaluation errors.
var (
	ErrInvalidRequest = errors.New("invalid evaluation request")
)
