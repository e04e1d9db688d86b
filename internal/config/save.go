package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	// Create parent directory if needed
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "save config")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "save config")
	}

	return os.WriteFile(path, data, 0644)
}
