/*
Package config manages the TOML configuration of t9dict.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Suggest  SuggestConfig  `toml:"suggest"`
	Workers  WorkersConfig  `toml:"workers"`
	Import   ImportConfig   `toml:"import"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig locates the word store.
type DatabaseConfig struct {
	Path          string `toml:"path"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
}

// SuggestConfig holds the default suggestion window.
type SuggestConfig struct {
	MinWords int `toml:"min_words"`
	MaxWords int `toml:"max_words"`
	Language int `toml:"language"`
}

// WorkersConfig sizes the dispatcher pools.
type WorkersConfig struct {
	Readers int `toml:"readers"`
	Queue   int `toml:"queue"`
}

// ImportConfig holds word list import options.
type ImportConfig struct {
	ChunkSize int `toml:"chunk_size"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:          "t9dict.db",
			BusyTimeoutMS: 5000,
		},
		Suggest: SuggestConfig{
			MinWords: 5,
			MaxWords: 20,
			Language: 1,
		},
		Workers: WorkersConfig{
			Readers: 2,
			Queue:   64,
		},
		Import: ImportConfig{
			ChunkSize: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// GetDefaultConfigPath returns [UserConfigDir]/t9dict/config.toml.
func GetDefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "t9dict", "config.toml"), nil
}

// LoadConfig loads from a TOML file. Keys missing from the file keep their
// default values.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	md, err := toml.DecodeFile(configPath, config)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	for _, key := range md.Undecoded() {
		log.Warnf("Unknown config key %q in %s", key.String(), configPath)
	}
	return config, nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/t9dict/config.toml
// 3. Builtin defaults
//
// A custom path that does not exist is an error; a missing default file is not.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		config, err := LoadConfig(customConfigPath)
		if err != nil {
			return nil, "", err
		}
		log.Debugf("Loaded config from custom path: %s", customConfigPath)
		return config, customConfigPath, nil
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := LoadConfig(defaultPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), "", nil
		}
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// SaveConfig saves into a TOML file, creating its directory.
func SaveConfig(config *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(config)
}
