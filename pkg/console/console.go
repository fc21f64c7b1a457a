// Package console writes timestamped, colored modeler output to stdout and,
// optionally, a plain-text activity log file.
package console

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// timestampFormat is the format for timestamps: YY-MM-DD HH:MM:SS
const timestampFormat = "06-01-02 15:04:05"

// indent aligns continuation lines with "[YY-MM-DD HH:MM:SS] ".
const indent = "                    "

var timestampColor = color.New(color.FgWhite)

// Config holds logger configuration.
type Config struct {
	LogFile string // activity log path, empty disables the file
	Debug   bool   // print Debug messages
	NoColor bool   // disable color output (sets color.NoColor globally)
}

// Logger writes timestamped output to stdout and the optional activity log.
// safe for concurrent use.
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	stdout    io.Writer
	colors    *Colors
	debug     bool
	startTime time.Time
}

// New creates a logger printing with colors.
func New(cfg Config, colors *Colors) (*Logger, error) {
	if cfg.NoColor {
		color.NoColor = true
	}

	l := &Logger{stdout: os.Stdout, colors: colors, debug: cfg.Debug, startTime: time.Now()}
	if cfg.LogFile == "" {
		return l, nil
	}

	if dir := filepath.Dir(cfg.LogFile); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // user supplied path
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l.file = f
	l.writeFile("# lgmodeler session %s\n", time.Now().Format("2006-01-02 15:04:05"))
	return l, nil
}

// Path returns the activity log path, empty when there is none.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Colors returns the logger palette.
func (l *Logger) Colors() *Colors { return l.colors }

// Print writes a timestamped info message.
func (l *Logger) Print(format string, args ...any) {
	l.line("", l.colors.Info(), fmt.Sprintf(format, args...))
}

// Accent writes a timestamped message in the accent color.
func (l *Logger) Accent(format string, args ...any) {
	l.line("", l.colors.Accent(), fmt.Sprintf(format, args...))
}

// Warn writes a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.line("WARN: ", l.colors.Warn(), fmt.Sprintf(format, args...))
}

// Error writes an error message.
func (l *Logger) Error(format string, args ...any) {
	l.line("ERROR: ", l.colors.Error(), fmt.Sprintf(format, args...))
}

// Debug writes a message only when debug output is enabled.
func (l *Logger) Debug(format string, args ...any) {
	if !l.debug {
		return
	}
	l.line("DEBUG: ", timestampColor, fmt.Sprintf(format, args...))
}

// PrintAligned writes multi-line text, timestamping the first line and indenting
// continuation lines. long lines are wrapped to the terminal width.
// text is written as is, so pre-colored content keeps its colors.
func (l *Logger) PrintAligned(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}

	width := terminalWidth()
	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if len(line) > width && !strings.Contains(line, "\x1b[") {
			lines = append(lines, strings.Split(wrapText(line, width), "\n")...)
			continue
		}
		lines = append(lines, line)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	timestamp := time.Now().Format(timestampFormat)
	for i, line := range lines {
		switch {
		case line == "":
			l.writeFile("\n")
			l.writeStdout("\n")
		case i == 0:
			l.writeFile("[%s] %s\n", timestamp, stripANSI(line))
			l.writeStdout("%s %s\n", timestampColor.Sprintf("[%s]", timestamp), line)
		default:
			l.writeFile("%s%s\n", indent, stripANSI(line))
			l.writeStdout("%s%s\n", indent, line)
		}
	}
}

// Elapsed returns formatted elapsed time since the logger was created.
func (l *Logger) Elapsed() string {
	return humanize.RelTime(l.startTime, time.Now(), "", "")
}

// Close writes the footer and closes the activity log.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	l.writeFile("# session ended after %s\n", l.Elapsed())
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

func (l *Logger) line(prefix string, c *color.Color, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	timestamp := time.Now().Format(timestampFormat)
	l.writeFile("[%s] %s%s\n", timestamp, prefix, msg)
	l.writeStdout("%s %s\n", timestampColor.Sprintf("[%s]", timestamp), c.Sprint(prefix+msg))
}

func (l *Logger) writeFile(format string, args ...any) {
	if l.file != nil {
		fmt.Fprintf(l.file, format, args...)
	}
}

func (l *Logger) writeStdout(format string, args ...any) {
	fmt.Fprintf(l.stdout, format, args...)
}

// terminalWidth returns the content width (terminal width minus the timestamp prefix),
// using COLUMNS first, then the stdout terminal size, then 80 columns.
func terminalWidth() int {
	const minWidth = 40
	clamp := func(w int) int { return max(w-len(indent), minWidth) }

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return clamp(w)
		}
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 { //nolint:gosec // fd fits int
		return clamp(w)
	}
	return 80 - len(indent)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits int
}

// wrapText wraps text to width, breaking on word boundaries.
func wrapText(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var sb strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		switch {
		case i == 0:
			lineLen = len(word)
		case lineLen+1+len(word) <= width:
			sb.WriteString(" ")
			lineLen += 1 + len(word)
		default:
			sb.WriteString("\n")
			lineLen = len(word)
		}
		sb.WriteString(word)
	}
	return sb.String()
}

// stripANSI removes SGR escape sequences so the log file stays plain text.
func stripANSI(s string) string {
	if !strings.Contains(s, "\x1b[") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
