package playback

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config playback server configuration.
type Config struct {
	Address      string `yaml:"address"`
	LibraryDir   string `yaml:"libraryDir"`
	DBPath       string `yaml:"dbPath"`
	AccountsPath string `yaml:"accountsPath"` // Empty disables authentication.
}

// ParseConfig parses and validates a yaml config.
func ParseConfig(raw []byte) (*Config, error) {
	config := Config{
		Address: ":2020",
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if config.LibraryDir == "" {
		return nil, fmt.Errorf("%w: libraryDir is required", ErrInvalidConfig)
	}
	if config.DBPath == "" {
		config.DBPath = config.LibraryDir + "/catalog.db"
	}
	return &config, nil
}

// ParseConfigFile reads and parses a yaml config file.
func ParseConfigFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(raw)
}
