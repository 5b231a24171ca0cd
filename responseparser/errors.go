package responseparser

import (
	"errors"
	"fmt"
)

// ErrNoJSONFound reports that no strategy located anything JSON-shaped in the
// raw response. Not retryable from the parser's side.
var ErrNoJSONFound = errors.New("no json payload found in response")

// UnparseableError reports that a candidate was located but never parsed
// within the retry budget. Candidate holds the final cleaned text, truncated
// so logs stay bounded.
type UnparseableError struct {
	LastErr   error
	Attempts  int
	Candidate string
}

func (e *UnparseableError) Error() string {
	return fmt.Sprintf("candidate still unparseable after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *UnparseableError) Unwrap() error { return e.LastErr }

// NoValidPostsError reports that JSON parsed but zero records survived
// validation. Cause distinguishes a wrong top-level shape from a batch whose
// records were all individually rejected.
type NoValidPostsError struct {
	Cause      string
	Rejections []Rejection
}

func (e *NoValidPostsError) Error() string {
	if len(e.Rejections) == 0 {
		return fmt.Sprintf("no valid posts: %s", e.Cause)
	}
	return fmt.Sprintf("no valid posts: %s (%d records rejected)", e.Cause, len(e.Rejections))
}
