package video

import "strings"

// JobState is the normalized three-state result of a poll.
type JobState string

const (
	StateRunning   JobState = "running"
	StateSucceeded JobState = "succeeded"
	StateFailed    JobState = "failed"
)

// PollResult reports one poll of an asynchronous job. ResultURL is set only
// on success, Message only on failure.
type PollResult struct {
	State     JobState
	ResultURL string
	Message   string
}

// stateByVocabulary maps each provider status word onto the shared three-state
// result. Keeping the mapping in one table isolates provider vocabulary churn
// from the polling loop and its callers.
var stateByVocabulary = map[string]JobState{
	"completed": StateSucceeded,
	"success":   StateSucceeded,
	"succeeded": StateSucceeded,
	"done":      StateSucceeded,
	"failed":    StateFailed,
	"error":     StateFailed,
	"canceled":  StateFailed,
}

// NormalizeState folds a raw provider status into the three-state result.
// Unknown vocabulary means the job is still running.
func NormalizeState(raw string) JobState {
	if state, ok := stateByVocabulary[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return state
	}
	return StateRunning
}
