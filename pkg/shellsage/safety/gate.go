// Package safety implements the two-stage command safety gate: a planner
// pre-filter (placeholder fragments + a catastrophic-literal blocklist)
// and the executor's last-line-of-defense regex gate, which is
// authoritative (Design Note b). Adapted from the teacher's
// ToolGuard.checkCommandSafety / compileDangerousPatterns idiom:
// compile once at startup, fall back to a literal substring check if a
// pattern fails to compile, never crash the caller.
package safety

import (
	"regexp"
	"strings"
)

// plannerPlaceholders are fragments that mark a planner-emitted command as
// a template the LLM failed to fill in. Steps containing any of these are
// skipped by the Planner before they ever reach the Executor.
var plannerPlaceholders = []string{
	"/path/to", "xxx", "用户名", "文件名", "目录名", "服务名", "包名",
	"your_", "YOUR_", "[name]", "{name}",
}

// plannerCatastrophicLiterals is the Planner's pre-filter blocklist —
// literal substrings, not a full regex gate. It overlaps with, but is not
// identical to, the Executor's gate (Design Note b: the Executor is
// authoritative).
var plannerCatastrophicLiterals = []string{
	"rm -rf /", "rm -rf /*", "rm -fr /", "rm -fr /*",
	"> /dev/sda", "mkfs.", "dd if=", ":(){:|:&};:",
}

// HasPlaceholder reports whether command contains an unfilled planner
// template fragment.
func HasPlaceholder(command string) bool {
	for _, p := range plannerPlaceholders {
		if strings.Contains(command, p) {
			return true
		}
	}
	return false
}

// IsPlannerCatastrophic reports whether command matches one of the
// Planner's literal catastrophic patterns.
func IsPlannerCatastrophic(command string) bool {
	for _, lit := range plannerCatastrophicLiterals {
		if strings.Contains(command, lit) {
			return true
		}
	}
	return false
}

// criticalRoots are directories whose recursive removal is always
// blocked, bare or with a trailing slash. A longer path (e.g. /bin/foo)
// is allowed.
var criticalRoots = []string{"/", "/bin", "/sbin", "/usr", "/lib", "/lib64", "/boot", "/etc"}

var (
	mkfsDevPattern     = regexp.MustCompile(`\bmkfs\S*\s+.*\bdev/`)
	ddToDevPattern     = regexp.MustCompile(`\bdd\b[^|;&]*\bof=/dev/`)
	redirectDevPattern = regexp.MustCompile(`>\s*/dev/(sd\w*|nvme\w*)`)
	forkBombPattern    = regexp.MustCompile(`:\s*\(\)\s*\{`)
)

// Gate is the Executor's catastrophic-command gate: compiled once,
// stateless, safe for concurrent use.
type Gate struct {
	allowDestructive bool
	extraPatterns    []fatalLikePattern
}

// fatalLikePattern mirrors the agent package's compile-or-fall-back-to-
// literal idiom: an operator-supplied extra pattern should never crash
// the gate just because it fails to compile as a regex.
type fatalLikePattern struct {
	re      *regexp.Regexp
	literal string
}

// NewGate returns a ready-to-use safety gate with no extra restrictions.
func NewGate() *Gate { return &Gate{} }

// NewGateFromPatterns returns a gate that additionally blocks any
// command matching one of extraPatterns (operator-supplied, e.g.
// config.Safety.ExtraPatterns). If allowDestructive is true, the gate
// never blocks anything — an explicit opt-out for environments that
// want the Planner/Executor taxonomy but not this hard stop.
func NewGateFromPatterns(allowDestructive bool, extraPatterns []string) *Gate {
	g := &Gate{allowDestructive: allowDestructive}
	for _, p := range extraPatterns {
		if re, err := regexp.Compile(p); err == nil {
			g.extraPatterns = append(g.extraPatterns, fatalLikePattern{re: re})
		} else {
			g.extraPatterns = append(g.extraPatterns, fatalLikePattern{literal: p})
		}
	}
	return g
}

// Block reports whether command must be refused outright, and if so, why.
func (g *Gate) Block(command string) (blocked bool, reason string) {
	if g.allowDestructive {
		return false, ""
	}

	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return false, ""
	}

	if forkBombPattern.MatchString(trimmed) {
		return true, "fork bomb signature"
	}

	if target, isRecursive := recursiveRmTarget(trimmed); isRecursive && isCriticalRoot(target) {
		return true, "recursive rm of a critical root: " + target
	}

	if mkfsDevPattern.MatchString(trimmed) {
		return true, "mkfs against a block device"
	}

	if ddToDevPattern.MatchString(trimmed) {
		return true, "dd writing to a block device"
	}

	if redirectDevPattern.MatchString(trimmed) {
		return true, "redirection to a block device"
	}

	for _, p := range g.extraPatterns {
		if p.re != nil {
			if p.re.MatchString(trimmed) {
				return true, "matched operator-configured pattern"
			}
			continue
		}
		if strings.Contains(trimmed, p.literal) {
			return true, "matched operator-configured pattern"
		}
	}

	return false, ""
}

// recursiveRmTarget scans an `rm` invocation for a recursive flag (-r, -rf,
// -fr, or the long form --recursive — -f/--force is not required, spec.md
// §4.5 step 3 blocks any recursive rm of a critical root) and returns the
// first non-flag argument after it — the removal target — ignoring any
// further flags in between (so `rm -r --verbose /` still resolves to "/").
func recursiveRmTarget(command string) (target string, isRecursive bool) {
	fields := strings.Fields(command)
	seenRm := false
	hasRecursive := false
	for _, f := range fields {
		if !seenRm {
			if f == "rm" {
				seenRm = true
			}
			continue
		}
		switch {
		case f == "--recursive":
			hasRecursive = true
		case strings.HasPrefix(f, "-") && !strings.HasPrefix(f, "--"):
			if strings.ContainsAny(f, "rR") {
				hasRecursive = true
			}
		default:
			if hasRecursive {
				return f, true
			}
		}
	}
	return "", false
}

func isCriticalRoot(path string) bool {
	cleaned := strings.TrimSuffix(path, "/")
	if cleaned == "" {
		cleaned = "/"
	}
	for _, root := range criticalRoots {
		if cleaned == root {
			return true
		}
	}
	return false
}
