package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store provides persistence for configuration data.
type Store interface {
	Load() error
	Save() error

	// GetSection retrieves the stored data for one section.
	GetSection(sectionID string) (map[string]interface{}, error)

	// SetSection stores the data for one section.
	SetSection(sectionID string, data map[string]interface{}) error
}

// FileStore implements Store using a YAML file.
type FileStore struct {
	path     string
	data     map[string]map[string]interface{}
	version  string
	modified bool
	mu       sync.RWMutex
}

// NewFileStore creates a file-based store. An empty path defaults to
// ~/.surf/config.yaml. A missing file is not an error; the store starts
// empty and the file appears on the first Save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".surf", "config.yaml")
	}

	store := &FileStore{
		path:    path,
		data:    make(map[string]map[string]interface{}),
		version: "1.0",
	}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

type fileLayout struct {
	Version  string                            `yaml:"version"`
	Sections map[string]map[string]interface{} `yaml:"sections"`
}

// Load reads the configuration from disk.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]map[string]interface{})
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	var layout fileLayout
	if err := yaml.Unmarshal(raw, &layout); err != nil {
		return fmt.Errorf("decoding config file %s: %w", s.path, err)
	}

	if layout.Version != "" {
		s.version = layout.Version
	}
	if layout.Sections != nil {
		s.data = layout.Sections
	} else {
		s.data = make(map[string]map[string]interface{})
	}
	s.modified = false
	return nil
}

// Save writes the configuration to disk atomically.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	raw, err := yaml.Marshal(fileLayout{Version: s.version, Sections: s.data})
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("writing temp config file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing config file: %w", err)
	}

	s.modified = false
	return nil
}

// GetSection returns a copy of the stored data for a section, empty when
// the section has never been saved.
func (s *FileStore) GetSection(sectionID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[sectionID]
	if !ok {
		return make(map[string]interface{}), nil
	}
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out, nil
}

// SetSection stores a copy of the data for a section.
func (s *FileStore) SetSection(sectionID string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make(map[string]interface{}, len(data))
	for k, v := range data {
		stored[k] = v
	}
	s.data[sectionID] = stored
	s.modified = true
	return nil
}

// IsModified reports whether the store has unsaved changes.
func (s *FileStore) IsModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }
