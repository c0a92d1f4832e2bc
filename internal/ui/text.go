package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

// MaskedValue replaces secret values in listings.
const MaskedValue = "********"

// TimeLayout is how timestamps are shown in status and audit output.
const TimeLayout = "2006-01-02 15:04:05"

// Formatter colors one kind of output. Without color it falls back to the
// prefix and suffix decoration.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

func (f Formatter) render(text string) string {
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

func (f Formatter) Sprint(a ...interface{}) string {
	return f.render(fmt.Sprint(a...))
}

func (f Formatter) Sprintf(format string, a ...interface{}) string {
	return f.render(fmt.Sprintf(format, a...))
}

// EnsureNewline appends a newline unless s already ends with one.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// Ok prefixes msg with a success mark.
func Ok(msg string) string {
	return Success.Sprint("✓") + " " + msg
}

// Fail prefixes msg with an error mark.
func Fail(msg string) string {
	return Error.Sprint("✗") + " " + msg
}

// Hint prefixes msg with an arrow, for follow-up suggestions.
func Hint(msg string) string {
	return Info.Sprint("→") + " " + msg
}

// Mask returns MaskedValue unless show is set.
func Mask(value string, show bool) string {
	if show {
		return value
	}
	return Muted.Sprint(MaskedValue)
}

// Toggle renders on as a success label and off as a muted one.
func Toggle(on bool, onLabel, offLabel string) string {
	if on {
		return Success.Sprint(onLabel)
	}
	return Muted.Sprint(offLabel)
}

// Timestamp renders t in local time, or "unknown" for the zero time.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return Muted.Sprint("unknown")
	}
	return t.Local().Format(TimeLayout)
}

func noColor() bool {
	// https://no-color.org/
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

var (
	// Code formats runnable commands. `backticks` without color.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	Path = Formatter{color.New(color.FgYellow), "", ""}
	Flag = Formatter{color.New(color.FgYellow), "", ""}

	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Warning = Formatter{color.New(color.FgYellow), "", ""}
	Info    = Formatter{color.New(color.FgCyan), "", ""}

	// Highlight formats project, environment and key names. 'quotes'
	// without color.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Muted formats secondary text and masked values. (parentheses)
	// without color.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)
