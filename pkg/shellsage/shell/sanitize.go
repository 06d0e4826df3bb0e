package shell

import (
	"regexp"
	"strings"
)

// ansiPattern matches ANSI CSI and OSC escape sequences.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)|\x1b[()][AB012]`)

// sanitize strips ANSI noise, the end-marker, the echoed command, and the
// trailing `echo '<<marker>>'` line from raw PTY output.
func sanitize(raw, command, marker string) string {
	out := ansiPattern.ReplaceAllString(raw, "")

	lines := strings.Split(out, "\n")
	cleaned := make([]string, 0, len(lines))
	commandSeen := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		// PTY echo guard: drop a leading line that is (or contains) the
		// original command, even with local echo disabled some shells
		// still echo once.
		if !commandSeen && command != "" && strings.Contains(trimmed, strings.TrimSpace(command)) {
			commandSeen = true
			continue
		}
		if strings.Contains(trimmed, "echo '<<") && strings.Contains(trimmed, ">>'") {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}

	// Strip every remaining occurrence of the marker only after the
	// echo-line check above, which needs the marker text to recognise it.
	out = strings.ReplaceAll(strings.Join(cleaned, "\n"), marker, "")
	return strings.TrimRight(out, " \t\r\n")
}
