package encryption

import (
	"time"

	"github.com/idelchi/kirmah/internal/header"
)

// Result represents the outcome of one pipeline invocation.
type Result struct {
	// Input file path
	Input string

	// Output file path
	Output string

	// Input and output sizes in bytes
	InputSize  int64
	OutputSize int64

	// Modes that were applied (encrypt) or read from the header (decrypt)
	Modes header.Modes

	// Wall time of the invocation
	Duration time.Duration

	// Any error that occurred during processing
	Error error
}
