// Package cli implements the loanguard-cli commands: generate fixtures,
// score borrowers and run evaluations against the risk pipeline.
package cli

import (
	"io"
	"time"
)

// Commands.
const (
	CommandSimulate = "simulate"
	CommandScore    = "score"
	CommandEvaluate = "evaluate"
	CommandSmoke    = "smoke"
)

// Options holds the parsed command line for one invocation.
type Options struct {
	Command string        // one of the Command* constants
	Profile string        // fixture or profile name; empty prompts for one
	Count   int           // fixtures generated per profile
	Months  int           // history length; 0 uses the configured default
	Samples int           // evaluation samples per profile
	URL     string        // base URL of a running server (smoke)
	Timeout time.Duration // HTTP request timeout (smoke)
	Verbose bool          // print feature vectors

	In  io.Reader // interactive input
	Out io.Writer // human-readable output
}
