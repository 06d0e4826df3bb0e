// Package transport exposes the agent orchestrator over a WebSocket
// connection: one connection owns one conversation (persistent memory
// and one shared shell session), matching spec.md §5/§6. Built new;
// the per-connection debounce/processing-flag idiom is grounded on the
// teacher's message_queue.go (generalized from "combine bursty chat
// messages" to "reject a new goal while a turn is in flight").
package transport

import (
	"encoding/json"
	"strings"
)

// Event kinds, per spec.md §6.
const (
	KindTasks    = "tasks"
	KindTerminal = "terminal"
	KindLog      = "log"
	KindReply    = "reply"
	KindSummary  = "summary"
	KindError    = "error"
	KindDone     = "done"
)

// Event is the wire envelope sent to the client for every emitted
// signal.
type Event struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// encodeEvent marshals an event; failure here means content itself was
// not valid UTF-8/JSON-safe, which the json package already guards
// against for plain strings, so this is not expected to fail.
func encodeEvent(kind, content string) ([]byte, error) {
	return json.Marshal(Event{Type: kind, Content: content})
}

// Goal is the client-to-server request shape: a single free-text goal
// per spec.md §1, under either key "goal" or "message".
type Goal struct {
	Goal    string `json:"goal"`
	Message string `json:"message"`
}

// parseGoal extracts the goal text from one inbound frame: a JSON object
// keyed "goal" or "message", or raw text if the frame isn't a JSON object
// at all (spec.md §6). An unparseable-as-goal JSON object (e.g. neither
// key present) yields an empty string, same as a blank raw-text frame.
func parseGoal(payload []byte) string {
	var g Goal
	if err := json.Unmarshal(payload, &g); err == nil {
		if g.Goal != "" {
			return strings.TrimSpace(g.Goal)
		}
		return strings.TrimSpace(g.Message)
	}
	return strings.TrimSpace(string(payload))
}
