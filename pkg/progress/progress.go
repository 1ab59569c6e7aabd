// Package progress provides timestamped logging to file and stdout with color support.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/umputun/chatcheck/pkg/config"
)

// Colors holds the color of every kind of log line.
type Colors struct {
	step      *color.Color
	pass      *color.Color
	fail      *color.Color
	warn      *color.Color
	err       *color.Color
	info      *color.Color
	timestamp *color.Color
}

// NewColors creates colors from "r,g,b" config values. malformed or empty values fall back to plain output.
func NewColors(cfg config.ColorConfig) *Colors {
	return &Colors{
		step:      rgbColor(cfg.Step),
		pass:      rgbColor(cfg.Pass),
		fail:      rgbColor(cfg.Fail),
		warn:      rgbColor(cfg.Warn),
		err:       rgbColor(cfg.Error),
		info:      rgbColor(cfg.Info),
		timestamp: rgbColor(cfg.Timestamp),
	}
}

// Info returns the color for informational output printed outside the logger.
func (c *Colors) Info() *color.Color { return c.info }

func rgbColor(s string) *color.Color {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.New()
	}
	var rgb [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return color.New()
		}
		rgb[i] = v
	}
	return color.RGB(rgb[0], rgb[1], rgb[2])
}

// Logger writes timestamped output to both file and stdout.
type Logger struct {
	file      *os.File
	stdout    io.Writer
	colors    *Colors
	startTime time.Time
}

// Config holds logger configuration.
type Config struct {
	Dir      string // directory of the log file, empty for the working directory
	Scenario string // scenario name, used to derive the log filename
	BaseURL  string // client under test, written to the header
	Driver   string // browser backend, written to the header
	NoColor  bool   // disable color output (sets color.NoColor globally)
	Colors   *Colors
}

// NewLogger creates a logger writing to both a log file and stdout.
func NewLogger(cfg Config) (*Logger, error) {
	if cfg.NoColor {
		color.NoColor = true
	}
	colors := cfg.Colors
	if colors == nil {
		colors = NewColors(config.ColorConfig{})
	}

	logPath := filepath.Join(cfg.Dir, logFilename(cfg.Scenario))
	if dir := filepath.Dir(logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	f, err := os.Create(logPath) //nolint:gosec // path derived from scenario name
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	l := &Logger{
		file:      f,
		stdout:    os.Stdout,
		colors:    colors,
		startTime: time.Now(),
	}

	l.writeFile("# Chatcheck Run Log\n")
	l.writeFile("Scenario: %s\n", cfg.Scenario)
	l.writeFile("Client: %s\n", cfg.BaseURL)
	l.writeFile("Driver: %s\n", cfg.Driver)
	l.writeFile("Started: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	l.writeFile("%s\n\n", strings.Repeat("-", 60))

	return l, nil
}

// Path returns the log file path.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// timestampFormat is the format for timestamps: YY-MM-DD HH:MM:SS
const timestampFormat = "06-01-02 15:04:05"

// Print writes a timestamped step message to both file and stdout.
func (l *Logger) Print(format string, args ...any) {
	l.line("", l.colors.step, fmt.Sprintf(format, args...))
}

// Info writes a timestamped informational message.
func (l *Logger) Info(format string, args ...any) {
	l.line("", l.colors.info, fmt.Sprintf(format, args...))
}

// Pass reports a passed check.
func (l *Logger) Pass(format string, args ...any) {
	l.aligned("PASS: ", l.colors.pass, fmt.Sprintf(format, args...))
}

// Fail reports a failed check. continuation lines of multi-line details are indented.
func (l *Logger) Fail(format string, args ...any) {
	l.aligned("FAIL: ", l.colors.fail, fmt.Sprintf(format, args...))
}

// Error writes an error message.
func (l *Logger) Error(format string, args ...any) {
	l.line("ERROR: ", l.colors.err, fmt.Sprintf(format, args...))
}

// Warn writes a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.line("WARN: ", l.colors.warn, fmt.Sprintf(format, args...))
}

// Section writes a section header.
func (l *Logger) Section(name string) {
	header := fmt.Sprintf("--- %s ---", name)
	l.writeFile("\n%s\n", header)
	l.writeStdout("\n%s\n", l.colors.step.Sprint(header))
}

// PrintRaw writes without timestamp.
func (l *Logger) PrintRaw(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.writeFile("%s", msg)
	l.writeStdout("%s", msg)
}

func (l *Logger) line(prefix string, c *color.Color, msg string) {
	timestamp := time.Now().Format(timestampFormat)
	l.writeFile("[%s] %s%s\n", timestamp, prefix, msg)
	l.writeStdout("%s %s\n", l.colors.timestamp.Sprintf("[%s]", timestamp), c.Sprint(prefix+msg))
}

// aligned timestamps the first line and indents continuation lines, wrapping
// long lines to the terminal width.
func (l *Logger) aligned(prefix string, c *color.Color, text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}

	timestamp := time.Now().Format(timestampFormat)
	tsPrefix := l.colors.timestamp.Sprintf("[%s]", timestamp)
	indent := "                    " // 20 chars to align with "[YY-MM-DD HH:MM:SS] "
	width := getTerminalWidth()

	var lines []string
	for line := range strings.SplitSeq(prefix+text, "\n") {
		if len(line) > width {
			lines = append(lines, strings.Split(wrapText(line, width), "\n")...)
			continue
		}
		lines = append(lines, line)
	}
	for i, line := range lines {
		switch {
		case line == "":
			l.writeFile("\n")
			l.writeStdout("\n")
		case i == 0:
			l.writeFile("[%s] %s\n", timestamp, line)
			l.writeStdout("%s %s\n", tsPrefix, c.Sprint(line))
		default:
			l.writeFile("%s%s\n", indent, line)
			l.writeStdout("%s%s\n", indent, c.Sprint(line))
		}
	}
}

// getTerminalWidth returns terminal width, using COLUMNS env var or syscall.
// Defaults to 80 if detection fails. Returns content width (total - 20 for timestamp).
func getTerminalWidth() int {
	const minWidth = 40

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return max(w-20, minWidth)
		}
	}

	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return max(w-20, minWidth)
	}

	return 80 - 20
}

// wrapText wraps text to specified width, breaking on word boundaries.
func wrapText(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		wordLen := len(word)
		switch {
		case i == 0:
			result.WriteString(word)
			lineLen = wordLen
		case lineLen+1+wordLen <= width:
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wordLen
		default:
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wordLen
		}
	}
	return result.String()
}

// Elapsed returns formatted elapsed time since start.
func (l *Logger) Elapsed() string {
	return humanize.RelTime(l.startTime, time.Now(), "", "")
}

// Close writes footer and closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	l.writeFile("\n%s\n", strings.Repeat("-", 60))
	l.writeFile("Completed: %s (%s)\n", time.Now().Format("2006-01-02 15:04:05"), l.Elapsed())

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	l.file = nil
	return nil
}

func (l *Logger) writeFile(format string, args ...any) {
	if l.file != nil {
		fmt.Fprintf(l.file, format, args...)
	}
}

func (l *Logger) writeStdout(format string, args ...any) {
	fmt.Fprintf(l.stdout, format, args...)
}

// logFilename returns the log file name for a scenario.
func logFilename(scenario string) string {
	stem := strings.TrimSuffix(filepath.Base(scenario), filepath.Ext(scenario))
	if scenario == "" || stem == "" || stem == "." {
		return "chatcheck.log"
	}
	return fmt.Sprintf("chatcheck-%s.log", stem)
}
