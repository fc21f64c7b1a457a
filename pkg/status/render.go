package status

import (
	"fmt"
	"html/template"
	"strings"
)

// Size selects one of the two badge presets.
type Size string

// badge sizes. the zero value renders as SizeSM.
const (
	SizeSM Size = "sm"
	SizeMD Size = "md"
)

type sizePreset struct {
	class string // spacing and typography classes
	icon  int    // glyph edge in px
}

func preset(size Size) sizePreset {
	switch size {
	case SizeMD:
		return sizePreset{class: "status-md gap-1.5 px-2.5 py-1 text-sm", icon: 16}
	case SizeSM, "":
		return sizePreset{class: "status-sm gap-1 px-2 py-0.5 text-xs", icon: 12}
	}
	panic(fmt.Sprintf("status: unsupported badge size %q", string(size)))
}

// glyphs holds svg path data keyed by DisplayConfig.Icon.
var glyphs = map[string]string{
	"check-circle":   `<path d="M22 11.08V12a10 10 0 1 1-5.93-9.14"/><path d="m9 11 3 3L22 4"/>`,
	"ban":            `<circle cx="12" cy="12" r="10"/><path d="m4.9 4.9 14.2 14.2"/>`,
	"clock":          `<circle cx="12" cy="12" r="10"/><path d="M12 6v6l4 2"/>`,
	"alert-triangle": `<path d="m21.73 18-8-14a2 2 0 0 0-3.48 0l-8 14A2 2 0 0 0 4 21h16a2 2 0 0 0 1.73-3Z"/><path d="M12 9v4"/><path d="M12 17h.01"/>`,
}

var badgeTmpl = template.Must(template.New("badge").Parse(
	`<span role="status" aria-label="{{.Aria}}" data-status="{{.Status}}" class="status-badge {{.Color}} {{.SizeClass}}">` +
		`<svg class="status-icon" data-icon="{{.Icon}}" width="{{.IconSize}}" height="{{.IconSize}}" viewBox="0 0 24 24" ` +
		`fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true">{{.Glyph}}</svg>` +
		`<span class="status-label">{{.Label}}</span></span>`))

type badgeData struct {
	Status    string
	Aria      string
	Color     string
	SizeClass string
	Icon      string
	IconSize  int
	Glyph     template.HTML
	Label     string
}

// Render returns the badge markup for a step status.
// the output depends only on (s, size); both must come from their closed sets.
func Render(s StepStatus, size Size) template.HTML {
	cfg := Config(s)
	p := preset(size)

	var sb strings.Builder
	err := badgeTmpl.Execute(&sb, badgeData{
		Status:    string(s),
		Aria:      cfg.AriaLabel,
		Color:     cfg.ColorClass,
		SizeClass: p.class,
		Icon:      cfg.Icon,
		IconSize:  p.icon,
		Glyph:     template.HTML(glyphs[cfg.Icon]), //nolint:gosec // constant svg paths
		Label:     cfg.Label,
	})
	if err != nil {
		panic(fmt.Sprintf("status: render badge: %v", err))
	}
	return template.HTML(sb.String()) //nolint:gosec // produced by html/template
}
