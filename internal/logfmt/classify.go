// Package logfmt classifies serial log lines for display. It understands
// the ESP-IDF log prefix colors and a couple of generic markers, so the
// monitor can highlight errors and warnings without parsing firmware
// output in full.
package logfmt

import (
	"regexp"
	"strings"
)

// Level is a display severity, not a logging level. Plain lines are
// rendered without highlighting.
type Level int

const (
	LevelPlain Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelSuccess
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "plain"
	}
}

var ansiEscapes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// ESP-IDF prefixes its lines with an SGR color sequence followed by the
// level letter. The escape character itself is often stripped by the
// transport, so we match on the remainder of the sequence.
var espPrefixes = []struct {
	marker string
	level  Level
}{
	{"[0;36mC", LevelInfo},    // cyan: chip boot banner
	{"[0;32mI", LevelInfo},    // green: info
	{"[0;32mW", LevelWarning}, // some builds emit warnings in green
	{"[0;33mW", LevelWarning}, // yellow: warning
	{"[0;31mE", LevelError},   // red: error
}

// Classify assigns a display level to a raw serial line. The generic
// "Error:" marker wins over the color prefixes, so an info-colored line
// reporting an error still surfaces as one.
func Classify(line string) Level {
	if strings.Contains(line, "Error:") {
		return LevelError
	}
	for _, p := range espPrefixes {
		if strings.Contains(line, p.marker) {
			return p.level
		}
	}
	return LevelPlain
}

// Clean strips ANSI color sequences so a classified line can be rendered
// with the monitor's own styling
func Clean(line string) string {
	cleaned := ansiEscapes.ReplaceAllString(line, "")
	// Transports that drop the escape byte leave the bracket sequence
	// behind; remove those remnants too.
	for _, p := range espPrefixes {
		if idx := strings.Index(cleaned, p.marker); idx >= 0 {
			cleaned = cleaned[:idx] + p.marker[len(p.marker)-1:] + cleaned[idx+len(p.marker):]
		}
	}
	cleaned = strings.ReplaceAll(cleaned, "[0m", "")
	return cleaned
}
