package executor

import "errors"

// ErrorCategory classifies a failed action for the orchestrating loop. The
// loop decides whether to retry, skip, or abort; no single action failure is
// fatal to the session.
type ErrorCategory string

const (
	// CategoryInvalidSnapshot marks a malformed structural dump or missing root.
	CategoryInvalidSnapshot ErrorCategory = "invalid_snapshot"

	// CategoryTargetNotFound marks a target absent from the current index map.
	CategoryTargetNotFound ErrorCategory = "target_not_found"

	// CategoryResolutionExhausted marks a target no candidate selector could
	// resolve to a live, actionable element.
	CategoryResolutionExhausted ErrorCategory = "resolution_exhausted"

	// CategoryTimeout marks an exceeded navigation, ready-state, or wait
	// budget.
	CategoryTimeout ErrorCategory = "timeout"

	// CategoryDriverError marks an underlying automation call failure.
	CategoryDriverError ErrorCategory = "driver_error"

	// CategoryParseError marks a malformed operation string.
	CategoryParseError ErrorCategory = "parse_error"

	// CategoryNotYetActionable marks a soft failure: the element exists but
	// cannot be interacted with yet (e.g. a dropdown option still out of
	// view). The caller should scroll and retry rather than abort.
	CategoryNotYetActionable ErrorCategory = "not_yet_actionable"
)

// ErrTargetNotFound is returned when a numeric target reference is absent
// from the current snapshot's index map. No driver call is attempted.
var ErrTargetNotFound = errors.New("target not found in current snapshot")

// ErrParse is returned for operation strings that do not follow the wire
// format.
var ErrParse = errors.New("malformed operation")

// NotYetActionableError signals that the target was located but the
// interaction cannot complete until the page is adjusted, typically by
// scrolling. It is a soft failure, distinct from a hard one.
type NotYetActionableError struct {
	Msg string
}

func (e *NotYetActionableError) Error() string { return e.Msg }

// SoftFailure marks the error as recoverable by retrying after a page
// adjustment.
func (e *NotYetActionableError) SoftFailure() bool { return true }
