package agent

import (
	"regexp"
	"strings"
)

// successPatterns are checked first: if any matches, the step is
// considered successful regardless of other matches (spec.md §7.4). Short
// tokens use word boundaries so they don't fire on unrelated substrings
// (e.g. "ok" inside "broken").
var successPatterns = []*regexp.Regexp{
	regexp.MustCompile(`successfully`),
	regexp.MustCompile(`\bok\b`),
	regexp.MustCompile(`\bdone\b`),
	regexp.MustCompile(`installed`),
	regexp.MustCompile(`\bactive \(running\)`),
}

// fatalPatterns is the fixed table of fatal-error regexes, compiled once
// at startup. If a pattern fails to compile, detectError falls back to a
// literal substring match for that pattern instead of crashing the
// executor (spec.md §9 Design Notes).
var fatalPatterns = compileFatalPatterns([]string{
	`command not found`,
	`no such file or directory`,
	`permission denied`,
	`connection refused`,
	`could not resolve`,
	`unable to locate package`,
	`e: unable to`,
	`package .* is not available`,
	`syntax error`,
	`fatal error`,
	`segmentation fault`,
	`out of memory`,
	`disk quota exceeded`,
	`no space left on device`,
	`authentication failed`,
	`access denied`,
})

type fatalPattern struct {
	re      *regexp.Regexp
	literal string
}

func compileFatalPatterns(raw []string) []fatalPattern {
	patterns := make([]fatalPattern, 0, len(raw))
	for _, p := range raw {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			patterns = append(patterns, fatalPattern{literal: strings.ToLower(p)})
			continue
		}
		patterns = append(patterns, fatalPattern{re: re})
	}
	return patterns
}

func (p fatalPattern) matches(lower string) bool {
	if p.re != nil {
		return p.re.MatchString(lower)
	}
	return strings.Contains(lower, p.literal)
}

// errorKeywords drives the "first line containing any of these" extraction
// rule in spec.md §7.4.
var errorKeywords = []string{"error", "failed", "denied", "not found", "unable", "cannot"}

// detectError scans sanitized output for fatal errors. It returns
// ("", false) when the step should be considered successful.
func detectError(output string) (message string, failed bool) {
	lower := strings.ToLower(output)

	for _, p := range successPatterns {
		if p.MatchString(lower) {
			return "", false
		}
	}

	matched := false
	for _, p := range fatalPatterns {
		if p.matches(lower) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	return extractErrorMessage(output), true
}

// extractErrorMessage implements spec.md §7.4's extraction rule: the
// first line containing any error keyword, truncated to 200 chars; else
// the last three lines, truncated to 300.
func extractErrorMessage(output string) string {
	lines := strings.Split(output, "\n")

	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, kw := range errorKeywords {
			if strings.Contains(lower, kw) {
				return truncateRunes(strings.TrimSpace(line), 200)
			}
		}
	}

	start := 0
	if len(lines) > 3 {
		start = len(lines) - 3
	}
	tail := strings.TrimSpace(strings.Join(lines[start:], "\n"))
	return truncateRunes(tail, 300)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
