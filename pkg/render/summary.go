package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lgmodeler/lgmodeler/pkg/project"
	"github.com/lgmodeler/lgmodeler/pkg/status"
)

// SummaryMarkdown describes the project name, description, state schema and palette as markdown.
func SummaryMarkdown(p *project.Project) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", p.Name)
	if d := strings.TrimSpace(p.Description); d != "" {
		sb.WriteString(d)
		sb.WriteString("\n\n")
	}

	sb.WriteString("## State Schema\n\n")
	if len(p.Schema) == 0 {
		sb.WriteString("_no fields_\n\n")
	} else {
		sb.WriteString("| key | type | reducer | description |\n|---|---|---|---|\n")
		for _, f := range p.Schema {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", codeCell(f.Key), cell(f.Type), cell(f.Reducer), cell(f.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Node Palette\n\n")
	if len(p.Palette) == 0 {
		sb.WriteString("_no node kinds_\n")
	}
	for _, n := range p.Palette {
		if n.Description != "" {
			fmt.Fprintf(&sb, "- **%s** (`%s`): %s\n", n.Label, n.ID, n.Description)
			continue
		}
		fmt.Fprintf(&sb, "- **%s** (`%s`)\n", n.Label, n.ID)
	}
	return sb.String()
}

// Traces lists every trace with per-step status lines for the console.
// statuses are painted with palette (nil means status.DefaultPalette), so color.NoColor applies.
func Traces(p *project.Project, now time.Time, palette status.Palette) string {
	if len(p.Traces) == 0 {
		return "no traces\n"
	}
	if palette == nil {
		palette = status.DefaultPalette()
	}

	var sb strings.Builder
	for i, tr := range p.Traces {
		if i > 0 {
			sb.WriteString("\n")
		}
		started := "not started"
		if !tr.StartedAt.IsZero() {
			started = humanize.RelTime(tr.StartedAt, now, "ago", "from now")
		}
		fmt.Fprintf(&sb, "%s (%s), %s, %s\n", tr.Name, tr.ID, humanize.Plural(len(tr.Steps), "step", "steps"), started)

		counts := tr.Counts()
		var parts []string
		for _, s := range status.All() {
			if n := counts[s]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", palette.Terminal(s), n))
			}
		}
		if len(parts) > 0 {
			fmt.Fprintf(&sb, "  %s\n", strings.Join(parts, "  "))
		}

		for j, st := range tr.Steps {
			line := fmt.Sprintf("  %2d. %-16s %s", j+1, st.Node, palette.Terminal(st.Status))
			if st.Note != "" {
				line += "  " + st.Note
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// codeCell renders s as a code span inside a table cell.
// a key holding backticks gets a double-backtick fence.
func codeCell(s string) string {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
	if strings.Contains(s, "`") {
		return "`` " + s + " ``"
	}
	return "`" + s + "`"
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
