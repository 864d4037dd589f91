package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	// ErrRejected is returned by producers when Enqueue refuses a job
	// because the queue is full, closed, or the context is done.
	ErrRejected = errors.New("queue rejected job")
)
