package config

import (
	"fmt"
	"sync"
)

// Section is one typed view over a slice of the configuration file.
// Sections register with the Manager, which moves their data in and out of
// the store.
type Section interface {
	// ID is the stable key the section's data lives under in the store.
	ID() string

	// Title is a short human-readable name.
	Title() string

	// Description explains what the section configures.
	Description() string

	// Data returns the current values as store data.
	Data() map[string]interface{}

	// SetData applies store data to the section. Unknown keys are ignored
	// so old binaries tolerate newer config files.
	SetData(data map[string]interface{}) error

	// Validate checks the current values.
	Validate() error

	// Reset restores defaults.
	Reset()
}

// Manager coordinates sections and their persistence.
type Manager struct {
	store    Store
	sections map[string]Section
	mu       sync.RWMutex
}

// NewManager creates a manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sections: make(map[string]Section),
	}
}

// RegisterSection adds a section. Registering the same ID twice is an
// error.
func (m *Manager) RegisterSection(section Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := section.ID()
	if _, exists := m.sections[id]; exists {
		return fmt.Errorf("section %q already registered", id)
	}
	m.sections[id] = section
	return nil
}

// GetSection returns a registered section by ID.
func (m *Manager) GetSection(id string) (Section, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	section, ok := m.sections[id]
	return section, ok
}

// LoadAll pushes stored data into every registered section and validates
// the result.
func (m *Manager) LoadAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, section := range m.sections {
		data, err := m.store.GetSection(id)
		if err != nil {
			return fmt.Errorf("loading section %q: %w", id, err)
		}
		if err := section.SetData(data); err != nil {
			return fmt.Errorf("applying section %q: %w", id, err)
		}
		if err := section.Validate(); err != nil {
			return fmt.Errorf("validating section %q: %w", id, err)
		}
	}
	return nil
}

// SaveAll pulls data out of every registered section and persists it.
func (m *Manager) SaveAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, section := range m.sections {
		if err := section.Validate(); err != nil {
			return fmt.Errorf("validating section %q: %w", id, err)
		}
		if err := m.store.SetSection(id, section.Data()); err != nil {
			return fmt.Errorf("storing section %q: %w", id, err)
		}
	}
	return m.store.Save()
}
