package translator

// ThinkingRecord describes one reasoning step, as exposed to the frontend
// in TOOL_CALL_ARGS deltas and to the metadata sink.
type ThinkingRecord struct {
	Status               string `json:"status"`
	ThoughtsTokenCount   int    `json:"thoughtsTokenCount"`
	TotalTokenCount      int    `json:"totalTokenCount"`
	CandidatesTokenCount int    `json:"candidatesTokenCount"`
	PromptTokenCount     int    `json:"promptTokenCount"`
	Model                string `json:"model"`
}

// SessionStats is the aggregated summary of one run, emitted as the
// ACTIVITY_SNAPSHOT payload and forwarded to the metadata sink.
type SessionStats struct {
	TotalThinkingTokens int     `json:"totalThinkingTokens"`
	TotalToolCalls      int     `json:"totalToolCalls"`
	DurationSeconds     float64 `json:"durationSeconds"`
	ThreadID            string  `json:"threadId"`
	RunID               string  `json:"runId"`
}

// MetadataSink receives best-effort side-channel writes keyed by
// conversation thread. Implementations must be safe for concurrent use;
// both methods are fire-and-forget and must not block on slow storage.
type MetadataSink interface {
	AddThinking(threadID string, rec ThinkingRecord)
	SetSessionStats(threadID string, stats SessionStats)
}
