package agent

import "github.com/jholhewres/shellsage/pkg/shellsage/llmclient"

// toLLMHistory adapts the agent package's MemoryEntry (which carries a
// display timestamp) to the llmclient's minimal {Role, Content} shape.
func toLLMHistory(memory []MemoryEntry) []llmclient.MemoryEntry {
	out := make([]llmclient.MemoryEntry, len(memory))
	for i, m := range memory {
		out[i] = llmclient.MemoryEntry{Role: m.Role, Content: m.Content}
	}
	return out
}
