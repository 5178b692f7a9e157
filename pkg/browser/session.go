package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/surf/pkg/browser/domscript"
	"github.com/entrhq/surf/pkg/dom"
)

// Session is one live automation session: an isolated browser context plus
// the registry and tracker that follow its tabs. Actions within a session
// are strictly sequential; concurrency exists only across sessions.
type Session struct {
	Name     string
	Browser  playwright.Browser
	Context  playwright.BrowserContext
	Registry *Registry
	Tracker  *Tracker
	Timeout  time.Duration
	Headless bool

	CreatedAt  time.Time
	LastUsedAt time.Time
}

// UpdateLastUsed stamps the session as just used.
func (s *Session) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// CurrentPage returns the session's current tab.
func (s *Session) CurrentPage() (Page, error) {
	page := s.Registry.CurrentPage()
	if page == nil {
		return nil, fmt.Errorf("session %q has no open pages", s.Name)
	}
	return page, nil
}

// Tabs summarizes the session's open tabs.
func (s *Session) Tabs() []TabInfo {
	return s.Registry.Tabs()
}

// Navigate loads a URL in the current tab.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.UpdateLastUsed()
	page, err := s.CurrentPage()
	if err != nil {
		return err
	}
	return page.Navigate(ctx, url)
}

// CaptureSnapshot runs the structural analysis script in the current tab and
// builds a typed snapshot from its output. The returned snapshot is only
// valid until the next mutating action or navigation.
func (s *Session) CaptureSnapshot(ctx context.Context) (*dom.Snapshot, error) {
	s.UpdateLastUsed()
	page, err := s.CurrentPage()
	if err != nil {
		return nil, err
	}

	payload, err := page.Evaluate(ctx, domscript.Source, domscript.DefaultArgs())
	if err != nil {
		return nil, fmt.Errorf("structural dump failed: %w", err)
	}

	snapshot, err := dom.BuildFromJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("snapshot build failed: %w", err)
	}
	return snapshot, nil
}

// CaptureOutline reads the current tab's raw HTML and reduces it to a coarse
// textual inventory. It is the degraded substitute for CaptureSnapshot on
// pages where the structural analysis script cannot run.
func (s *Session) CaptureOutline(ctx context.Context) (string, error) {
	s.UpdateLastUsed()
	page, err := s.CurrentPage()
	if err != nil {
		return "", err
	}

	payload, err := page.Evaluate(ctx, outerHTMLScript, nil)
	if err != nil {
		return "", fmt.Errorf("reading page HTML: %w", err)
	}
	var raw string
	if err := json.Unmarshal(payload, &raw); err != nil {
		return "", fmt.Errorf("decoding page HTML: %w", err)
	}

	outline, err := Outline(raw)
	if err != nil {
		return "", err
	}
	return outline.String(), nil
}

const outerHTMLScript = `() => document.documentElement.outerHTML`

// Screenshot captures the current tab as PNG bytes.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	s.UpdateLastUsed()
	page, err := s.CurrentPage()
	if err != nil {
		return nil, err
	}
	return page.Screenshot(ctx)
}

// PageState describes scroll and size information for the current tab, used
// when summarizing the page for the model.
type PageState struct {
	URL            string
	Title          string
	ViewportWidth  int
	ViewportHeight int
	PageWidth      int
	PageHeight     int
	ScrollY        int
}

// PixelsAbove returns how much of the page is scrolled out above the viewport.
func (p PageState) PixelsAbove() int {
	return p.ScrollY
}

// PixelsBelow returns how much of the page remains below the viewport.
func (p PageState) PixelsBelow() int {
	below := p.PageHeight - (p.ScrollY + p.ViewportHeight)
	if below < 0 {
		return 0
	}
	return below
}

// CapturePageState reads the current tab's dimensions and scroll position.
func (s *Session) CapturePageState(ctx context.Context) (PageState, error) {
	page, err := s.CurrentPage()
	if err != nil {
		return PageState{}, err
	}

	state := PageState{URL: page.URL()}
	state.ViewportWidth, state.ViewportHeight = page.Viewport()
	if title, err := page.Title(); err == nil {
		state.Title = title
	}

	payload, err := page.Evaluate(ctx, pageMetricsScript, nil)
	if err != nil {
		return state, nil // partial state is still usable
	}
	var metrics struct {
		PageWidth  int `json:"pageWidth"`
		PageHeight int `json:"pageHeight"`
		ScrollY    int `json:"scrollY"`
	}
	if unmarshalErr := json.Unmarshal(payload, &metrics); unmarshalErr == nil {
		state.PageWidth = metrics.PageWidth
		state.PageHeight = metrics.PageHeight
		state.ScrollY = metrics.ScrollY
	}
	return state, nil
}

const pageMetricsScript = `() => ({
	pageWidth: document.documentElement.scrollWidth,
	pageHeight: document.documentElement.scrollHeight,
	scrollY: Math.round(window.scrollY),
})`
