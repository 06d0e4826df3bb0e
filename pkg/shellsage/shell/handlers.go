// Package shell – handlers.go holds the interactive-prompt handler tables,
// keyed by command class. Each handler list is supplied for the duration
// of exactly one command.
package shell

import (
	"regexp"
	"strings"
)

// PromptHandler is a (pattern, response) pair. When the session's read
// window matches Pattern against the intervening output, Response is
// written back to the PTY (without a trailing newline added here —
// callers add it).
type PromptHandler struct {
	Pattern  *regexp.Regexp
	Response string
}

func mustHandler(pattern, response string) PromptHandler {
	return PromptHandler{Pattern: regexp.MustCompile(pattern), Response: response}
}

var (
	packageManagerHandlers = []PromptHandler{
		mustHandler(`Do you want to continue\? \[Y/n\]`, "y"),
		mustHandler(`Is this ok \[y/N\]`, "y"),
		mustHandler(`\[Y/n\]`, "y"),
		mustHandler(`\[y/N\]`, "y"),
	}

	mysqlHandlers = []PromptHandler{
		mustHandler(`Enter password:`, ""),
		mustHandler(`Password:`, ""),
	}

	rmHandlers = []PromptHandler{
		mustHandler(`remove.*\?`, "y"),
	}

	sshHandlers = []PromptHandler{
		mustHandler(`Are you sure you want to continue connecting`, "yes"),
		mustHandler(`password:`, ""),
	}

	gitHandlers = []PromptHandler{
		mustHandler(`Username for`, ""),
		mustHandler(`Password for`, ""),
	}
)

// HandlersForCommand returns the interactive-prompt handler set for a
// command, derived from its command class. Order follows §6 of the spec;
// the first handler whose pattern matches wins.
func HandlersForCommand(command string) []PromptHandler {
	var handlers []PromptHandler

	switch {
	case matchesAny(command, "apt-get", "apt ", "yum", "dnf"):
		handlers = append(handlers, packageManagerHandlers...)
	}
	switch {
	case matchesAny(command, "mysql", "mariadb"):
		handlers = append(handlers, mysqlHandlers...)
	}
	switch {
	case matchesAny(command, "rm "):
		handlers = append(handlers, rmHandlers...)
	}
	switch {
	case matchesAny(command, "ssh ", "scp "):
		handlers = append(handlers, sshHandlers...)
	}
	switch {
	case matchesAny(command, "git "):
		handlers = append(handlers, gitHandlers...)
	}

	return handlers
}

// matchesAny is a permissive substring check on command class: a pipeline
// like `sudo apt-get install -y htop` should still pick up package-manager
// handlers.
func matchesAny(command string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(command, n) {
			return true
		}
	}
	return false
}
