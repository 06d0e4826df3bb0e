// Package agent implements the six-agent handoff graph described in
// spec.md §3–4: Router, Chat, Planner, Executor, Repair, Summary, driven
// by an Orchestrator. No teacher equivalent has a multi-agent state
// machine (the teacher's agent.go is a single tool-calling loop); the
// turn-bounds/config/logging idiom is carried over from it.
package agent

import (
	"context"
	"time"

	"github.com/jholhewres/shellsage/pkg/shellsage/llmclient"
	"github.com/jholhewres/shellsage/pkg/shellsage/shell"
)

// Status is a Step's lifecycle state.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Step is one executable unit of a plan.
type Step struct {
	Title   string
	Command string
	Status  Status
	Output  string
	Error   string
}

// Snapshot returns a client-safe view of the step, truncating Output to
// 200 chars per spec.md §6 `tasks` event contract.
func (s Step) Snapshot() StepSnapshot {
	return StepSnapshot{
		Title:   s.Title,
		Command: s.Command,
		Status:  string(s.Status),
		Output:  truncate(s.Output, 200),
		Error:   s.Error,
	}
}

// StepSnapshot is the wire shape of a Step for the `tasks` event.
type StepSnapshot struct {
	Title   string `json:"title"`
	Command string `json:"command"`
	Status  string `json:"status"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// Output is a captured step result, kept for repair/summary context.
type Output struct {
	Title   string
	Content string
}

// MemoryEntry is one turn of conversation history.
type MemoryEntry struct {
	Role      string // "user", "assistant", "system"
	Content   string
	Timestamp time.Time
}

// Bounds caps retry/replan/iteration counters (spec.md §3, §8).
type Bounds struct {
	MaxRetries              int
	MaxReplans              int
	MaxIterations           int
	PartialSuccessThreshold float64
}

// DefaultBounds matches spec.md's stated defaults.
func DefaultBounds() Bounds {
	return Bounds{
		MaxRetries:              3,
		MaxReplans:              3,
		MaxIterations:           20,
		PartialSuccessThreshold: 0.7,
	}
}

// EmitFunc streams a typed event to the client. Implementations may be
// synchronous or deferred (spec.md §9 Design Notes); the Orchestrator
// yields after every call either way.
type EmitFunc func(kind, content string)

// Context is the shared, per-turn mutable state every agent operates on.
// It is owned by the Orchestrator and passed to exactly one agent at a
// time; never shared across turns or goroutines within a turn.
type Context struct {
	Goal   string
	Memory *[]MemoryEntry // pointer: memory persists across turns, owned by the caller

	Steps           []Step
	CurrentStepIdx  int
	Outputs         []Output
	RetryCount      int
	ReplanCount     int
	LastFailureReason string

	Bounds Bounds

	LLM   llmclient.Completer
	Shell *shell.Session
	Emit  EmitFunc
}

// AppendMemory records one memory entry, stamping the current time.
func (c *Context) AppendMemory(role, content string) {
	*c.Memory = append(*c.Memory, MemoryEntry{Role: role, Content: content, Timestamp: now()})
}

// now returns the wall-clock time used for memory timestamps; no agent
// logic depends on wall-clock values, only on ordering.
func now() time.Time { return time.Now() }

// TasksSnapshot renders all steps as client-safe snapshots.
func (c *Context) TasksSnapshot() []StepSnapshot {
	out := make([]StepSnapshot, len(c.Steps))
	for i, s := range c.Steps {
		out[i] = s.Snapshot()
	}
	return out
}

// Result is the return value of one agent invocation.
type Result struct {
	Success   bool
	NextAgent string // "" means terminal
	Message   string
}

// Name identifiers for the dispatch table.
const (
	NameRouter   = "router"
	NameChat     = "chat"
	NamePlanner  = "planner"
	NameExecutor = "executor"
	NameRepair   = "repair"
	NameSummary  = "summary"
)

// Agent is a single named unit implementing Run(ctx) → Result.
type Agent interface {
	Name() string
	Run(ctx context.Context, ac *Context) Result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
