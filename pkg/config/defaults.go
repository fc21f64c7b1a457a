package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

// defaultsInstaller writes the embedded default config to disk.
type defaultsInstaller struct {
	embedFS embed.FS
}

// newDefaultsInstaller creates a new defaultsInstaller with the given embedded filesystem.
func newDefaultsInstaller(embedFS embed.FS) *defaultsInstaller {
	return &defaultsInstaller{embedFS: embedFS}
}

// Install creates configDir and writes the default config file into it.
// an existing config file is never overwritten. returns the config file path.
func Install(configDir string) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return newDefaultsInstaller(defaultsFS).Install(configDir)
}

// Install creates the config directory and the config file if missing.
func (d *defaultsInstaller) Install(configDir string) (string, error) {
	// create config directory (0700 - user only)
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config")
	_, statErr := os.Stat(configPath)
	if statErr == nil {
		return configPath, nil
	}
	if !os.IsNotExist(statErr) {
		return "", fmt.Errorf("check config file: %w", statErr)
	}

	data, err := d.embedFS.ReadFile("defaults/config")
	if err != nil {
		return "", fmt.Errorf("read embedded config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}
	return configPath, nil
}
