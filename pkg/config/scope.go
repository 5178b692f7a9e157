package config

import "sync"

// SectionIDScope is the identifier for the navigation scope section.
const SectionIDScope = "scope"

// ScopeSection manages the URL allow-list the navigate action is held to.
// An empty list allows navigation anywhere.
type ScopeSection struct {
	AllowedURLs []string

	mu sync.RWMutex
}

// NewScopeSection creates a scope section with no restrictions.
func NewScopeSection() *ScopeSection {
	return &ScopeSection{}
}

func (s *ScopeSection) ID() string    { return SectionIDScope }
func (s *ScopeSection) Title() string { return "Navigation Scope" }

func (s *ScopeSection) Description() string {
	return "Glob patterns for hosts the agent may navigate to, e.g. \"*.example.com\". Empty allows everything."
}

func (s *ScopeSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls := make([]interface{}, len(s.AllowedURLs))
	for i, u := range s.AllowedURLs {
		urls[i] = u
	}
	return map[string]interface{}{"allowed_urls": urls}
}

func (s *ScopeSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := data["allowed_urls"].([]interface{})
	if !ok {
		return nil
	}
	urls := make([]string, 0, len(raw))
	for _, v := range raw {
		if u, ok := v.(string); ok && u != "" {
			urls = append(urls, u)
		}
	}
	s.AllowedURLs = urls
	return nil
}

// Validate always passes; pattern syntax is checked when the scope is
// compiled for the executor.
func (s *ScopeSection) Validate() error { return nil }

func (s *ScopeSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AllowedURLs = nil
}

// GetAllowedURLs returns a copy of the allow-list.
func (s *ScopeSection) GetAllowedURLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.AllowedURLs...)
}
