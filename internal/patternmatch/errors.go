package patternmatch

import "github.com/cockroachdb/errors"

// Sentinel errors for pattern matching and materialization.
var (
	// ErrInvalidPattern indicates a glob that could not be compiled.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrBaseDirNotFound indicates a scanned base directory does not exist.
	ErrBaseDirNotFound = errors.New("base directory not found")
	// ErrRemoveDest indicates the destination could not be removed after all retries.
	ErrRemoveDest = errors.New("failed to remove destination directory")
)
