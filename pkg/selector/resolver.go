package selector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/dom"
)

// ErrExhausted reports that every candidate selector was tried and none
// yielded a live, actionable element. The resolver never guesses.
var ErrExhausted = errors.New("resolution exhausted")

// Attempt records one failed candidate for diagnostics.
type Attempt struct {
	Candidate Candidate
	Reason    string
}

// ExhaustionError carries the full trail of failed candidates.
type ExhaustionError struct {
	Target   string
	Attempts []Attempt
}

func (e *ExhaustionError) Error() string {
	reasons := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		reasons = append(reasons, fmt.Sprintf("%s: %s", a.Candidate, a.Reason))
	}
	return fmt.Sprintf("no candidate resolved target %q (tried %d: %s)",
		e.Target, len(e.Attempts), strings.Join(reasons, "; "))
}

func (e *ExhaustionError) Unwrap() error { return ErrExhausted }

// Candidates derives the candidate list for a target reference against a
// snapshot. A numeric target is looked up in the highlight-index map; a
// target starting with "/" is matched against structural paths; anything
// else is treated as free text. The boolean reports whether the target
// named a node known to the snapshot.
func Candidates(snapshot *dom.Snapshot, target string) ([]Candidate, bool) {
	target = strings.TrimSpace(target)

	if idx, err := strconv.Atoi(target); err == nil {
		if snapshot != nil {
			if el, ok := snapshot.Element(idx); ok {
				return ForElement(el), true
			}
		}
		return nil, false
	}

	if strings.HasPrefix(target, "/") && snapshot != nil {
		if el := findByPath(snapshot, target); el != nil {
			return ForElement(el), true
		}
	}

	return ForFreeText(target), false
}

func findByPath(snapshot *dom.Snapshot, path string) *dom.ElementNode {
	var found *dom.ElementNode
	snapshot.Walk(func(n dom.Node) {
		if found != nil {
			return
		}
		if el, ok := n.(*dom.ElementNode); ok && el.StructuralPath == path {
			found = el
		}
	})
	return found
}

// Match is a resolved live element: the winning candidate narrowed to one
// locator, plus a warning when the tie-break picked the first of several.
type Match struct {
	Candidate Candidate
	Locator   browser.Locator
	Warning   string
}

// Resolve tries candidates in order against the live page and hands the
// first matching locator to interact. A candidate fails when it matches no
// live element or when the interaction errors; either way the failure is
// recovered locally and the next candidate is tried. When a candidate
// matches more than one element the first in document order is used and a
// warning is attached. Exhausting all candidates returns an
// *ExhaustionError wrapping ErrExhausted.
func Resolve(ctx context.Context, page browser.Page, target string, candidates []Candidate,
	interact func(context.Context, Match) error) (*Match, error) {

	exhaustion := &ExhaustionError{Target: target}

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		locator := page.Locator(candidate.Selector)
		count, err := locator.Count(ctx)
		if err != nil {
			exhaustion.Attempts = append(exhaustion.Attempts, Attempt{candidate, fmt.Sprintf("count failed: %v", err)})
			continue
		}
		if count == 0 {
			exhaustion.Attempts = append(exhaustion.Attempts, Attempt{candidate, "no live element matched"})
			continue
		}

		match := Match{Candidate: candidate, Locator: locator}
		if count > 1 {
			match.Locator = locator.First()
			match.Warning = fmt.Sprintf("selector %s matched %d elements, using the first in document order", candidate, count)
		}

		if interact != nil {
			if err := interact(ctx, match); err != nil {
				// A soft failure aborts resolution so the caller can retry
				// the same element after adjusting the page.
				if IsSoftFailure(err) {
					return nil, err
				}
				exhaustion.Attempts = append(exhaustion.Attempts, Attempt{candidate, fmt.Sprintf("interaction failed: %v", err)})
				continue
			}
		}
		return &match, nil
	}

	return nil, exhaustion
}

// softFailure marks errors that mean "the element was found but is not yet
// actionable"; resolution must not burn further candidates on them.
type softFailure interface{ SoftFailure() bool }

// IsSoftFailure reports whether err is a soft not-yet-actionable signal.
func IsSoftFailure(err error) bool {
	var soft softFailure
	return errors.As(err, &soft) && soft.SoftFailure()
}
