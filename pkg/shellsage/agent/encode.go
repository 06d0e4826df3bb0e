package agent

import "encoding/json"

// encodeTasks renders step snapshots as the JSON array the `tasks` event
// carries as its content (spec.md §6). Marshal failure is not expected
// for this plain-data shape; fall back to an empty array rather than
// panicking.
func encodeTasks(snaps []StepSnapshot) string {
	data, err := json.Marshal(snaps)
	if err != nil {
		return "[]"
	}
	return string(data)
}
