// Package config loads lgmodeler configuration from ini files.
// the lookup chain is embedded defaults → global (~/.config/lgmodeler/config) → local
// (.lgmodeler/config in the working directory); later sources override earlier ones.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed defaults/config
var defaultsFS embed.FS

// localDirName is the per-project config directory, relative to the working directory.
const localDirName = ".lgmodeler"

// ColorConfig holds console colors as "r,g,b" strings.
// Error doubles as the color of errored steps.
type ColorConfig struct {
	Info   string
	Warn   string
	Error  string
	Accent string

	Fired   string
	Blocked string
	Pending string
}

// Config is the fully resolved configuration.
type Config struct {
	Values
	Colors ColorConfig

	// LocalPath and GlobalPath are the config files that were consulted (they may not exist).
	LocalPath  string
	GlobalPath string
}

// DefaultsFS returns the embedded defaults filesystem.
func DefaultsFS() embed.FS {
	return defaultsFS
}

// DefaultConfigDir returns the global config directory, ~/.config/lgmodeler.
// honors XDG_CONFIG_HOME when set.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lgmodeler")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "lgmodeler")
	}
	return filepath.Join(home, ".config", "lgmodeler")
}

// Load resolves configuration. configDir is the global config directory,
// empty string uses DefaultConfigDir. a project_file read from the local config
// is resolved relative to the working directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	globalPath := filepath.Join(configDir, "config")
	localPath := filepath.Join(localDirName, "config")

	values, err := newValuesLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}

	colors, err := newColorLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load colors: %w", err)
	}

	return &Config{Values: values, Colors: colors, LocalPath: localPath, GlobalPath: globalPath}, nil
}

// stripComments removes full-line # and ; comments, keeping everything else.
func stripComments(content string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
