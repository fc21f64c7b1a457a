package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// colorLoader resolves the console palette from the same config files as Values.
type colorLoader struct {
	embedFS embed.FS
}

func newColorLoader(embedFS embed.FS) *colorLoader {
	return &colorLoader{embedFS: embedFS}
}

// colorKeys binds ini keys to palette fields. step colors paint the trace list in --summary.
func colorKeys(c *ColorConfig) []struct {
	key   string
	field *string
} {
	return []struct {
		key   string
		field *string
	}{
		{"color_info", &c.Info},
		{"color_warn", &c.Warn},
		{"color_error", &c.Error},
		{"color_accent", &c.Accent},
		{"color_fired", &c.Fired},
		{"color_blocked", &c.Blocked},
		{"color_pending", &c.Pending},
	}
}

// Load merges embedded → global → local palettes; paths are config files, not directories.
//
//nolint:dupl // same chain as valuesLoader.Load
func (cl *colorLoader) Load(localConfigPath, globalConfigPath string) (ColorConfig, error) {
	data, err := cl.embedFS.ReadFile("defaults/config")
	if err != nil {
		return ColorConfig{}, fmt.Errorf("read embedded defaults: %w", err)
	}
	result, err := parseColors(data)
	if err != nil {
		return ColorConfig{}, fmt.Errorf("parse embedded defaults: %w", err)
	}

	for _, src := range []struct{ name, path string }{{"global", globalConfigPath}, {"local", localConfigPath}} {
		colors, err := cl.parseColorsFromFile(src.path)
		if err != nil {
			return ColorConfig{}, fmt.Errorf("parse %s config: %w", src.name, err)
		}
		result.mergeFrom(&colors)
	}
	return result, nil
}

// parseColorsFromFile returns an empty palette for a missing file.
func (cl *colorLoader) parseColorsFromFile(path string) (ColorConfig, error) {
	if path == "" {
		return ColorConfig{}, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return ColorConfig{}, nil
		}
		return ColorConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return parseColors(data)
}

func parseColors(data []byte) (ColorConfig, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return ColorConfig{}, fmt.Errorf("parse config: %w", err)
	}

	var colors ColorConfig
	section := cfg.Section("")
	for _, ck := range colorKeys(&colors) {
		if !section.HasKey(ck.key) {
			continue
		}
		hex := strings.TrimSpace(section.Key(ck.key).String())
		if hex == "" {
			continue
		}
		r, g, b, err := parseHexColor(hex)
		if err != nil {
			return ColorConfig{}, fmt.Errorf("invalid %s: %w", ck.key, err)
		}
		*ck.field = fmt.Sprintf("%d,%d,%d", r, g, b)
	}
	return colors, nil
}

// parseHexColor accepts "#rrggbb" and the css short form "#rgb".
func parseHexColor(hex string) (r, g, b int, err error) {
	if hex == "" || hex[0] != '#' {
		return 0, 0, 0, errors.New("hex color must start with #")
	}
	digits := hex[1:]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	if len(digits) != 6 {
		return 0, 0, 0, errors.New("hex color must be #rgb or #rrggbb")
	}

	val, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return int(val>>16) & 0xFF, int(val>>8) & 0xFF, int(val) & 0xFF, nil
}

// mergeFrom copies every non-empty color of src over dst.
func (dst *ColorConfig) mergeFrom(src *ColorConfig) {
	srcKeys := colorKeys(src)
	for i, ck := range colorKeys(dst) {
		if v := *srcKeys[i].field; v != "" {
			*ck.field = v
		}
	}
}
