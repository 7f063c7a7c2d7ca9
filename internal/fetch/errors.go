package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies the outcome of a page load.
type Kind int

const (
	// OK means the required marker is present and the page is usable.
	OK Kind = iota
	// NotYetRendered means the marker is absent; the dynamic content has
	// not settled yet. Retried after the retry delay.
	NotYetRendered
	// SourceError means the source reported an explicit error state or is
	// stuck in its loading visual. Retried after the retry delay.
	SourceError
	// RateLimited means the source signaled throttling or a ban. The gate
	// suspends itself for the cooldown before any further attempt.
	RateLimited
	// Fatal means the locator is malformed or the resource is permanently
	// absent. Never retried.
	Fatal
	// Exhausted means the retry budget was consumed without success.
	Exhausted
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case NotYetRendered:
		return "not-yet-rendered"
	case SourceError:
		return "source-error"
	case RateLimited:
		return "rate-limited"
	case Fatal:
		return "fatal"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the gate's terminal failure. Transient classifications never
// surface; only Fatal and Exhausted escape the retry loop.
type Error struct {
	Kind     Kind
	Locator  string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s after %d attempt(s): %v", e.Locator, e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s after %d attempt(s)", e.Locator, e.Kind, e.Attempts)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from an error chain. Errors that did
// not come from a gate report Fatal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Fatal
}
