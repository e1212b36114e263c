package merkle

import "github.com/pkg/errors"

// The library reports two kinds of failure. ErrInvalidArgument marks
// malformed caller input and is recoverable at the boundary. ErrInvariant
// marks a violated internal assertion, which indicates tampered data or a
// bug and is not expected to be recovered.
//
// Every error returned by this module and by the tree facades wraps one of
// these sentinels, so callers dispatch with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvariant       = errors.New("broken invariant")
)
