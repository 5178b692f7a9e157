// Package browser manages live browser sessions: the driver capability
// surface, the page registry and lifecycle tracker that follow tab creation
// and navigation, and the Playwright-backed implementation.
package browser

import (
	"context"
	"time"
)

// TabContext is the driver-level browser context: the ordered list of open
// tabs. Tabs are owned by the driver; the registry only references them.
type TabContext interface {
	// Pages returns the open tabs in creation order.
	Pages() []Page
}

// Page is one driver tab. Any CDP- or WebDriver-capable backend can satisfy
// it; the core never assumes more than these capabilities.
type Page interface {
	URL() string
	Title() (string, error)

	// WaitForReady blocks until the document reaches its ready state or the
	// timeout elapses.
	WaitForReady(ctx context.Context, timeout time.Duration) error

	Navigate(ctx context.Context, url string) error

	// Evaluate runs a script in the page and returns its JSON-encoded result.
	Evaluate(ctx context.Context, script string, arg any) ([]byte, error)

	Screenshot(ctx context.Context) ([]byte, error)

	// Locator returns a handle for the elements matching a driver selector.
	// No driver round-trip happens until the handle is used.
	Locator(selector string) Locator

	// Viewport returns the page viewport size in CSS pixels.
	Viewport() (width, height int)
}

// Locator is a lazy handle over the elements matching one selector.
type Locator interface {
	Count(ctx context.Context) (int, error)
	First() Locator
	Nth(index int) Locator

	Click(ctx context.Context, timeout time.Duration) error
	Fill(ctx context.Context, text string, timeout time.Duration) error
	SelectOption(ctx context.Context, label string, timeout time.Duration) error
	Evaluate(ctx context.Context, script string, arg any) ([]byte, error)

	TextContent(ctx context.Context) (string, error)
	IsVisible(ctx context.Context) (bool, error)
	ScrollIntoView(ctx context.Context, timeout time.Duration) error
}
