package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings is client-local state that outlives a session.
type Settings struct {
	OnboardingSeen bool `yaml:"onboarding_seen"`
}

// SettingsStore loads and saves Settings.
type SettingsStore interface {
	Load() (Settings, error)
	Save(Settings) error
}

// MemorySettings keeps Settings in memory.
type MemorySettings struct {
	mu sync.Mutex
	s  Settings
}

func (m *MemorySettings) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *MemorySettings) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}

// FileSettings stores Settings as YAML at Path. A missing file loads as the
// zero Settings.
type FileSettings struct {
	Path string
}

func (f FileSettings) Load() (Settings, error) {
	var s Settings
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", f.Path, err)
	}
	return s, nil
}

func (f FileSettings) Save(s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	// Write then rename so a crash never leaves a truncated file.
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
