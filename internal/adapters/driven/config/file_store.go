// Package config persists CLI configuration as a TOML file in the
// user's config directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	configFile = "config.toml"
	filePerm   = 0o600
	dirPerm    = 0o700
)

// Config holds user-editable settings. Zero values mean "unset" and the
// CLI falls back to its built-in defaults.
type Config struct {
	ClientID       string `toml:"client_id,omitempty"`
	Tenant         string `toml:"tenant,omitempty"`
	DefaultAccount string `toml:"default_account,omitempty"`
}

// FileStore reads and writes the config file.
type FileStore struct {
	path string
}

// NewFileStore creates a store rooted at dir. An empty dir selects
// ~/.outlook-cli.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, ".outlook-cli")
	}
	return &FileStore{path: filepath.Join(dir, configFile)}, nil
}

// Load reads the config file. A missing file yields a zero Config.
func (s *FileStore) Load() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &cfg, nil
}

// Save writes the config file, creating the directory if needed.
func (s *FileStore) Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(s.path, data, filePerm); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Path returns the config file location.
func (s *FileStore) Path() string {
	return s.path
}
