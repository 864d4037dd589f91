package model

import "time"

// ScoreJob is a labeled borrower record queued for offline scoring.
type ScoreJob struct {
	ID      string
	Profile string
	// Label is the expected risk class id for evaluation, or -1 when unknown.
	Label      int
	Record     BorrowerRecord
	EnqueuedAt time.Time
}
