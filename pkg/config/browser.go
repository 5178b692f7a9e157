package config

import (
	"fmt"
	"sync"
)

// SectionIDBrowser is the identifier for the browser settings section.
const SectionIDBrowser = "browser"

// BrowserSection manages browser session settings.
type BrowserSection struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int

	// TimeoutSeconds bounds each driver interaction.
	TimeoutSeconds int

	// PollBudget is how many one-second polls the page lifecycle tracker
	// spends watching for a navigation or new tab after a click.
	PollBudget int

	mu sync.RWMutex
}

// NewBrowserSection creates a browser section with its defaults.
func NewBrowserSection() *BrowserSection {
	return &BrowserSection{
		Headless:       true,
		ViewportWidth:  1280,
		ViewportHeight: 720,
		TimeoutSeconds: 30,
		PollBudget:     10,
	}
}

func (s *BrowserSection) ID() string    { return SectionIDBrowser }
func (s *BrowserSection) Title() string { return "Browser Settings" }

func (s *BrowserSection) Description() string {
	return "Configure browser sessions: headless mode, viewport size, and interaction timeouts."
}

func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"headless":        s.Headless,
		"viewport_width":  s.ViewportWidth,
		"viewport_height": s.ViewportHeight,
		"timeout_seconds": s.TimeoutSeconds,
		"poll_budget":     s.PollBudget,
	}
}

func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["headless"].(bool); ok {
		s.Headless = v
	}
	if v, ok := asInt(data["viewport_width"]); ok {
		s.ViewportWidth = v
	}
	if v, ok := asInt(data["viewport_height"]); ok {
		s.ViewportHeight = v
	}
	if v, ok := asInt(data["timeout_seconds"]); ok {
		s.TimeoutSeconds = v
	}
	if v, ok := asInt(data["poll_budget"]); ok {
		s.PollBudget = v
	}
	return nil
}

func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", s.ViewportWidth, s.ViewportHeight)
	}
	if s.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", s.TimeoutSeconds)
	}
	if s.PollBudget <= 0 {
		return fmt.Errorf("poll_budget must be positive, got %d", s.PollBudget)
	}
	return nil
}

func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Headless = true
	s.ViewportWidth = 1280
	s.ViewportHeight = 720
	s.TimeoutSeconds = 30
	s.PollBudget = 10
}

func (s *BrowserSection) GetHeadless() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Headless
}

func (s *BrowserSection) GetViewport() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ViewportWidth, s.ViewportHeight
}

func (s *BrowserSection) GetTimeoutSeconds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.TimeoutSeconds
}

func (s *BrowserSection) GetPollBudget() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PollBudget
}

// asInt tolerates the numeric types YAML decoding produces.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
