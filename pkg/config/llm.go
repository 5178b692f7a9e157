package config

import "sync"

// SectionIDLLM is the identifier for the LLM settings section.
const SectionIDLLM = "llm"

// LLMSection manages LLM provider settings.
type LLMSection struct {
	Model   string
	BaseURL string
	APIKey  string

	// VisionModel optionally directs screenshot-bearing page analysis to a
	// different model. Empty means Model handles everything.
	VisionModel string

	mu sync.RWMutex
}

// NewLLMSection creates an LLM section with empty defaults. All resolution
// happens at provider build time, where environment variables and flags
// take precedence.
func NewLLMSection() *LLMSection {
	return &LLMSection{}
}

func (s *LLMSection) ID() string    { return SectionIDLLM }
func (s *LLMSection) Title() string { return "LLM Settings" }

func (s *LLMSection) Description() string {
	return "Configure the LLM provider. vision_model is optional; if set, page analysis with screenshots uses it instead of the main model."
}

func (s *LLMSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"model":        s.Model,
		"base_url":     s.BaseURL,
		"api_key":      s.APIKey,
		"vision_model": s.VisionModel,
	}
}

func (s *LLMSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["model"].(string); ok {
		s.Model = v
	}
	if v, ok := data["base_url"].(string); ok {
		s.BaseURL = v
	}
	if v, ok := data["api_key"].(string); ok {
		s.APIKey = v
	}
	if v, ok := data["vision_model"].(string); ok {
		s.VisionModel = v
	}
	return nil
}

// Validate always passes: LLM settings are optional here and checked for
// real when the provider is built.
func (s *LLMSection) Validate() error { return nil }

func (s *LLMSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model = ""
	s.BaseURL = ""
	s.APIKey = ""
	s.VisionModel = ""
}

func (s *LLMSection) GetModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Model
}

func (s *LLMSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BaseURL
}

func (s *LLMSection) GetAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.APIKey
}

func (s *LLMSection) GetVisionModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.VisionModel
}
