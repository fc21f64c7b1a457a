package console

import (
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/lgmodeler/lgmodeler/pkg/config"
	"github.com/lgmodeler/lgmodeler/pkg/status"
)

// Colors holds the console palette resolved from config.
type Colors struct {
	info   *color.Color
	warn   *color.Color
	err    *color.Color
	accent *color.Color
	steps  status.Palette
}

// NewColors builds the palette from "r,g,b" config values.
// a value that does not parse falls back to the matching basic terminal color.
func NewColors(cfg config.ColorConfig) *Colors {
	c := &Colors{
		info:   rgbOr(cfg.Info, color.FgWhite),
		warn:   rgbOr(cfg.Warn, color.FgYellow),
		err:    rgbOr(cfg.Error, color.FgRed),
		accent: rgbOr(cfg.Accent, color.FgCyan),
	}
	c.steps = status.Palette{
		status.Fired:   rgbOr(cfg.Fired, color.FgGreen),
		status.Blocked: rgbOr(cfg.Blocked, color.FgYellow),
		status.Pending: rgbOr(cfg.Pending, color.FgWhite),
		status.Error:   c.err,
	}
	return c
}

// Info returns the color for regular messages.
func (c *Colors) Info() *color.Color { return c.info }

// Warn returns the color for warnings.
func (c *Colors) Warn() *color.Color { return c.warn }

// Error returns the color for errors.
func (c *Colors) Error() *color.Color { return c.err }

// Accent returns the color for highlighted values such as urls and paths.
func (c *Colors) Accent() *color.Color { return c.accent }

// Steps returns the palette for step outcomes in trace listings.
func (c *Colors) Steps() status.Palette { return c.steps }

func rgbOr(val string, fallback color.Attribute) *color.Color {
	parts := strings.Split(val, ",")
	if len(parts) != 3 {
		return color.New(fallback)
	}
	var rgb [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			return color.New(fallback)
		}
		rgb[i] = n
	}
	return color.RGB(rgb[0], rgb[1], rgb[2])
}
