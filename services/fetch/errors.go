package fetch

import (
	"errors"
	"fmt"
)

// ErrNotFound marks expected absence: the resource, content id or episode
// simply is not there. Callers treat it as an empty result, not a failure.
var ErrNotFound = errors.New("content not found")

// Error is a terminal fetch failure: network error, timeout or a non-2xx
// status after the fallback policy ran its course.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

func (e *Error) Unwrap() error { return e.Err }

// ChallengeError signals that the target answered with an anti-automation
// interstitial instead of content. Protected sites retry once through the
// challenge solver; everything else demotes this to a plain fetch Error.
type ChallengeError struct {
	URL        string
	StatusCode int
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("fetch %s: protection challenge (status %d)", e.URL, e.StatusCode)
}
