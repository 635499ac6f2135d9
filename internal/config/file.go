package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigPathEnv overrides the location of the config file.
const ConfigPathEnv = "CHATRELAY_CONFIG"

// ConfigPath returns the path to the config file
// ($CHATRELAY_CONFIG, or ~/.chatrelay/config.toml).
func ConfigPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return filepath.Join(DataDir(), "config.toml")
}

// LoadFile decodes the TOML file at path over cfg.
// Keys absent from the file keep their current values.
// A missing file is not an error.
func LoadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	_, err := toml.DecodeFile(path, cfg)
	return err
}
