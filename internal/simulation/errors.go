package simulation

import "errors"

// ErrUnknownProfile is returned for profile names without a definition.
var ErrUnknownProfile = errors.New("unknown borrower profile")

// ErrInvalidMonths is returned when a history length exceeds MaxMonths.
var ErrInvalidMonths = errors.New("invalid history length")
