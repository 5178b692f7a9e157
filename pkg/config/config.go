// Package config persists user settings in ~/.surf/config.yaml and exposes
// them through typed sections registered with a manager.
package config

import "sync"

var (
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates the global configuration manager. Call once at
// startup; an empty configPath uses the default location.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	store, err := NewFileStore(configPath)
	if err != nil {
		return err
	}

	manager := NewManager(store)
	if err := manager.RegisterSection(NewLLMSection()); err != nil {
		return err
	}
	if err := manager.RegisterSection(NewBrowserSection()); err != nil {
		return err
	}
	if err := manager.RegisterSection(NewScopeSection()); err != nil {
		return err
	}
	if err := manager.LoadAll(); err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Global returns the global manager. Panics when Initialize has not run.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}
	return globalManager
}

// IsInitialized reports whether Initialize has run.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetLLM returns the LLM section, nil when config is not initialized.
func GetLLM() *LLMSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDLLM)
	if !ok {
		return nil
	}
	llm, ok := section.(*LLMSection)
	if !ok {
		return nil
	}
	return llm
}

// GetBrowser returns the browser section, nil when config is not
// initialized.
func GetBrowser() *BrowserSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDBrowser)
	if !ok {
		return nil
	}
	browser, ok := section.(*BrowserSection)
	if !ok {
		return nil
	}
	return browser
}

// GetScope returns the navigation scope section, nil when config is not
// initialized.
func GetScope() *ScopeSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDScope)
	if !ok {
		return nil
	}
	scope, ok := section.(*ScopeSection)
	if !ok {
		return nil
	}
	return scope
}
