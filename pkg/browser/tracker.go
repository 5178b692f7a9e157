package browser

import (
	"context"
	"time"
)

// Tracker default timing. Ten one-second polls bounds the wait for a pop-up
// tab; readiness waits are short because a page that is still loading is
// handled by the next snapshot rebuild anyway.
const (
	DefaultPollInterval = 1 * time.Second
	DefaultPollBudget   = 10
	DefaultReadyTimeout = 5 * time.Second
)

// Tracker detects the page-level side effects of an action: a new tab
// opening or the current tab navigating. It is consulted only after actions
// that can cause navigation (click, navigate), never speculatively.
type Tracker struct {
	registry     *Registry
	pollInterval time.Duration
	pollBudget   int
	readyTimeout time.Duration
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithPollInterval sets the interval between tab-count polls.
func WithPollInterval(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.pollInterval = d }
}

// WithPollBudget sets the number of tab-count polls before giving up.
func WithPollBudget(n int) TrackerOption {
	return func(t *Tracker) { t.pollBudget = n }
}

// WithReadyTimeout sets the document-ready wait applied to whichever tab
// ends up current.
func WithReadyTimeout(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.readyTimeout = d }
}

// NewTracker creates a tracker over a page registry.
func NewTracker(registry *Registry, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		registry:     registry,
		pollInterval: DefaultPollInterval,
		pollBudget:   DefaultPollBudget,
		readyTimeout: DefaultReadyTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DetectAndSwitch reports whether the page state changed relative to the
// pre-action tab count and URL, switching the registry's current tab when a
// new one appeared.
//
// A new tab wins over same-tab navigation: the most recently opened tab
// becomes current and its URL is reported. Readiness waits are best-effort;
// failing to reach document-ready within the timeout is tolerated, not
// fatal. When neither a new tab nor a URL change is observed within the
// budget, (false, oldURL) is returned.
func (t *Tracker) DetectAndSwitch(ctx context.Context, oldPageCount int, oldURL string) (changed bool, url string) {
	for poll := 0; poll < t.pollBudget; poll++ {
		if count := t.registry.PageCount(); count > oldPageCount {
			t.registry.promote(count - 1)
			page := t.registry.CurrentPage()
			_ = page.WaitForReady(ctx, t.readyTimeout) // tolerated
			return true, page.URL()
		}

		// Same-tab navigation short-circuits the remaining polls.
		if page := t.registry.CurrentPage(); page != nil {
			if current := page.URL(); current != oldURL {
				_ = page.WaitForReady(ctx, t.readyTimeout) // tolerated
				return true, page.URL()
			}
		}

		select {
		case <-ctx.Done():
			return false, oldURL
		case <-time.After(t.pollInterval):
		}
	}

	page := t.registry.CurrentPage()
	if page == nil {
		return false, oldURL
	}
	_ = page.WaitForReady(ctx, t.readyTimeout) // tolerated
	if current := page.URL(); current != oldURL {
		return true, current
	}
	return false, oldURL
}
