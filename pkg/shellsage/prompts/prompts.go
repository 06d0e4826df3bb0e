// Package prompts treats prompt text as opaque templates parameterised by
// named slots, per spec.md §9 Design Notes: substitution is strict and
// named (never positional), so future prompt edits cannot silently break
// callers. The agent system prompts below are plain constants; only
// ChatIdentity has a slot ({{name}}). Composer provides the teacher's
// layered-priority idiom (prompt_layers.go) for assembling a system
// prompt from layers; no agent uses it.
package prompts

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render performs strict named substitution of `{{slot}}` placeholders in
// template using slots. It is an error for the template to reference a
// slot that isn't supplied — callers get an explicit error instead of a
// silently-unfilled prompt.
func Render(template string, slots map[string]string) (string, error) {
	var missing []string
	rendered := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		val, ok := slots[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return val
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt template missing slots: %s", strings.Join(missing, ", "))
	}
	return rendered, nil
}

// Layer is the priority of a system-prompt contribution. Lower values are
// higher priority and come first in the composed prompt.
type Layer int

const (
	LayerIdentity    Layer = 0  // Base agent identity/role.
	LayerSafety      Layer = 5  // Safety-gate rules the LLM should respect.
	LayerGoal        Layer = 20 // The user's current goal.
	LayerRecentTurns Layer = 60 // Summary of recent turn outcomes.
	LayerRuntime     Layer = 80 // Runtime info (final line).
)

type layerEntry struct {
	layer   Layer
	content string
}

// Composer assembles a system prompt from prioritized layers.
type Composer struct {
	entries []layerEntry
}

// NewComposer returns an empty composer.
func NewComposer() *Composer { return &Composer{} }

// Add appends a layer's content if non-empty.
func (c *Composer) Add(layer Layer, content string) *Composer {
	if strings.TrimSpace(content) != "" {
		c.entries = append(c.entries, layerEntry{layer: layer, content: content})
	}
	return c
}

// Compose returns the final prompt, layers ordered by priority.
func (c *Composer) Compose() string {
	sort.SliceStable(c.entries, func(i, j int) bool { return c.entries[i].layer < c.entries[j].layer })
	parts := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		parts = append(parts, e.content)
	}
	return strings.Join(parts, "\n\n")
}

// Templates. Their wording is a functional placeholder for the opaque
// templates spec.md §1 scopes out — only their semantic contracts matter.
const (
	RouterSystemPrompt = "You are the intent router for a Linux operations assistant. " +
		"Decide whether the user's message is conversational small talk or an " +
		"actionable task against the host. Reply with the single token CHAT if " +
		"conversational, or TASK otherwise."

	ChatIdentity = "You are {{name}}, a conversational assistant for a Linux operations agent. " +
		"Reply naturally; you do not have terminal access in this mode."

	PlannerSystemPrompt = "You are the planner for a Linux operations assistant. Given a goal, " +
		"produce an ordered list of shell steps, one per line, formatted as " +
		"`title::command`. Never use placeholders; never propose destructive " +
		"commands against system roots."

	EvaluatorSystemPrompt = "You judge whether a goal has been achieved from an execution summary. " +
		"Reply with COMPLETED, INCOMPLETE:<reason>, or BLOCKED:<reason>."

	RepairSystemPrompt = "You are the repair agent. Given a failed step and recent context, " +
		"propose up to two corrective steps using the same `title::command` format."

	SummarySystemPrompt = "You write a concise, human-readable execution report from the step log."
)
