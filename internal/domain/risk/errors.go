package risk

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrClassifierContract marks classifier output that breaks the
	// class/probability contract. It is never coerced into a tier.
	ErrClassifierContract = errors.New("classifier contract violation")
	// ErrInvalidPolicy marks an engine configuration that cannot produce a
	// bounded, monotone default probability.
	ErrInvalidPolicy = errors.New("invalid risk policy")
)
