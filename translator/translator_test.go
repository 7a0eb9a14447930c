package translator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aguibridge/agui"
	"aguibridge/engine"
)

// streamOf returns a closed upstream channel preloaded with items.
func streamOf(items ...engine.StreamEvent) <-chan engine.StreamEvent {
	ch := make(chan engine.StreamEvent, len(items))
	for _, item := range items {
		ch <- item
	}
	close(ch)
	return ch
}

func drain(out <-chan agui.Event) []agui.Event {
	var got []agui.Event
	for e := range out {
		got = append(got, e)
	}
	return got
}

func textEvent(text string) engine.StreamEvent {
	return engine.StreamEvent{Event: &engine.Event{
		Content: engine.Content{Parts: []engine.Part{engine.TextPart{Text: text}}},
	}}
}

func thinkingEvent(text string, thoughts int, model string) engine.StreamEvent {
	return engine.StreamEvent{Event: &engine.Event{
		ModelVersion: model,
		Content: engine.Content{Parts: []engine.Part{
			engine.TextPart{Text: text, ThoughtSignature: true},
		}},
		UsageMetadata: &engine.UsageMetadata{
			ThoughtsTokenCount:   thoughts,
			TotalTokenCount:      thoughts + 100,
			CandidatesTokenCount: 80,
			PromptTokenCount:     20,
		},
	}}
}

func callEvent(id, name string, args map[string]any) engine.StreamEvent {
	return engine.StreamEvent{Event: &engine.Event{
		Content: engine.Content{Parts: []engine.Part{
			engine.FunctionCallPart{ID: id, Name: name, Args: args},
		}},
	}}
}

func responseEvent(id, name string, response map[string]any) engine.StreamEvent {
	return engine.StreamEvent{Event: &engine.Event{
		Content: engine.Content{Parts: []engine.Part{
			engine.FunctionResponsePart{ID: id, Name: name, Response: response},
		}},
	}}
}

func types(got []agui.Event) []agui.EventType {
	out := make([]agui.EventType, len(got))
	for i, e := range got {
		out[i] = e.EventType()
	}
	return out
}

func translate(t *testing.T, items ...engine.StreamEvent) []agui.Event {
	t.Helper()
	tr := New("t1", "r1")
	return drain(tr.Translate(context.Background(), streamOf(items...)))
}

func TestTranslate_EmptyStream(t *testing.T) {
	got := translate(t)

	require.Equal(t, []agui.EventType{
		agui.EventTypeRunStarted,
		agui.EventTypeActivitySnapshot,
		agui.EventTypeRunFinished,
	}, types(got))

	started := got[0].(agui.RunStarted)
	assert.Equal(t, "t1", started.ThreadID)
	assert.Equal(t, "r1", started.RunID)

	snap := got[1].(agui.ActivitySnapshot)
	assert.Equal(t, "session-stats-t1-r1", snap.MessageID)
	assert.Equal(t, agui.ActivityTypeSessionStats, snap.ActivityType)
	assert.True(t, snap.Replace)

	stats := snap.Content.(SessionStats)
	assert.Zero(t, stats.TotalThinkingTokens)
	assert.Zero(t, stats.TotalToolCalls)
	assert.Equal(t, "t1", stats.ThreadID)
	assert.Equal(t, "r1", stats.RunID)
}

func TestTranslate_TextStreaming(t *testing.T) {
	got := translate(t, textEvent("Hel"), textEvent("lo, "), textEvent("world"))

	// The snapshot precedes the trailing TEXT_MESSAGE_END.
	require.Equal(t, []agui.EventType{
		agui.EventTypeRunStarted,
		agui.EventTypeTextMessageStart,
		agui.EventTypeTextMessageContent,
		agui.EventTypeTextMessageContent,
		agui.EventTypeTextMessageContent,
		agui.EventTypeActivitySnapshot,
		agui.EventTypeTextMessageEnd,
		agui.EventTypeRunFinished,
	}, types(got))

	start := got[1].(agui.TextMessageStart)
	assert.NotEmpty(t, start.MessageID)
	assert.Equal(t, agui.RoleAssistant, start.Role)

	text := ""
	for _, e := range got[2:5] {
		content := e.(agui.TextMessageContent)
		assert.Equal(t, start.MessageID, content.MessageID)
		text += content.Delta
	}
	assert.Equal(t, "Hello, world", text)

	assert.Equal(t, start.MessageID, got[6].(agui.TextMessageEnd).MessageID)
}

func TestTranslate_EmptyTextIgnored(t *testing.T) {
	got := translate(t,
		engine.StreamEvent{Event: &engine.Event{Content: engine.Content{Parts: []engine.Part{
			engine.TextPart{Text: ""},
			engine.TextPart{Text: "", ThoughtSignature: true},
		}}}},
	)

	assert.Equal(t, []agui.EventType{
		agui.EventTypeRunStarted,
		agui.EventTypeActivitySnapshot,
		agui.EventTypeRunFinished,
	}, types(got))
}

func TestTranslate_FunctionCall(t *testing.T) {
	got := translate(t,
		textEvent("Checking"),
		callEvent("call-1", "lookup", map[string]any{"q": "x"}),
	)

	// The open message closes before the tool call starts.
	require.Equal(t, []agui.EventType{
		agui.EventTypeRunStarted,
		agui.EventTypeTextMessageStart,
		agui.EventTypeTextMessageContent,
		agui.EventTypeTextMessageEnd,
		agui.EventTypeToolCallStart,
		agui.EventTypeToolCallArgs,
		agui.EventTypeToolCallEnd,
		agui.EventTypeActivitySnapshot,
		agui.EventTypeRunFinished,
	}, types(got))

	start := got[4].(agui.ToolCallStart)
	assert.Equal(t, "call-1", start.ToolCallID)
	assert.Equal(t, "lookup", start.ToolCallName)

	args := got[5].(agui.ToolCallArgs)
	assert.Equal(t, "call-1", args.ToolCallID)
	assert.JSONEq(t, `{"q":"x"}`, args.Delta)

	assert.Equal(t, "call-1", got[6].(agui.ToolCallEnd).ToolCallID)

	stats := got[7].(agui.ActivitySnapshot).Content.(SessionStats)
	assert.Equal(t, 1, stats.TotalToolCalls)
}

func TestTranslate_ThinkingWhileMessageOpen(t *testing.T) {
	got := translate(t,
		textEvent("First"),
		thinkingEvent("Reasoning...", 42, "gemini-2.5-pro"),
	)

	require.Equal(t, []agui.EventType{
		agui.EventTypeRunStarted,
		agui.EventTypeTextMessageStart,
		agui.EventTypeTextMessageContent,
		agui.EventTypeTextMessageEnd, // previous message closes first
		agui.EventTypeToolCallStart,
		agui.EventTypeToolCallArgs,
		agui.EventTypeToolCallEnd,
		agui.EventTypeToolCallResult, // synthetic call resolves itself
		agui.EventTypeTextMessageStart,
		agui.EventTypeTextMessageContent,
		agui.EventTypeActivitySnapshot,
		agui.EventTypeTextMessageEnd,
		agui.EventTypeRunFinished,
	}, types(got))

	prevID := got[1].(agui.TextMessageStart).MessageID
	assert.Equal(t, prevID, got[3].(agui.TextMessageEnd).MessageID)

	call := got[4].(agui.ToolCallStart)
	assert.Equal(t, ThinkingToolName, call.ToolCallName)
	assert.NotEmpty(t, call.ToolCallID)

	var rec ThinkingRecord
	require.NoError(t, json.Unmarshal([]byte(got[5].(agui.ToolCallArgs).Delta), &rec))
	assert.Equal(t, "in_progress", rec.Status)
	assert.Equal(t, 42, rec.ThoughtsTokenCount)
	assert.Equal(t, 142, rec.TotalTokenCount)
	assert.Equal(t, 80, rec.CandidatesTokenCount)
	assert.Equal(t, 20, rec.PromptTokenCount)
	assert.Equal(t, "gemini-2.5-pro", rec.Model)

	result := got[7].(agui.ToolCallResult)
	assert.Equal(t, call.ToolCallID, result.ToolCallID)
	assert.NotEmpty(t, result.MessageID)
	assert.JSONEq(t, `{"status":"complete"}`, result.Content)
	assert.Equal(t, agui.RoleTool, result.Role)

	newID := got[8].(agui.TextMessageStart).MessageID
	assert.NotEqual(t, prevID, newID)
	assert.Equal(t, "Reasoning...", got[9].(agui.TextMessageContent).Delta)
}

func TestTranslate_FunctionResponse(t *testing.T) {
	got := translate(t, responseEvent("call-9", "lookup", map[string]any{"ok": true}))

	require.Equal(t, []agui.EventType{
		agui.EventTypeRunStarted,
		agui.EventTypeToolCallResult,
		agui.EventTypeActivitySnapshot,
		agui.EventTypeRunFinished,
	}, types(got))

	result := got[1].(agui.ToolCallResult)
	assert.Equal(t, "call-9", result.ToolCallID)
	assert.NotEmpty(t, result.MessageID)
	assert.JSONEq(t, `{"ok":true}`, result.Content)
	assert.Equal(t, agui.RoleTool, result.Role)

	// Responses do not count as tool calls.
	stats := got[2].(agui.ActivitySnapshot).Content.(SessionStats)
	assert.Zero(t, stats.TotalToolCalls)
}

func TestTranslate_SessionStatsAggregation(t *testing.T) {
	got := translate(t,
		thinkingEvent("a", 5, "m"),
		thinkingEvent("b", 7, "m"),
		callEvent("c1", "one", nil),
		callEvent("c2", "two", nil),
		responseEvent("c1", "one", nil),
	)

	last := got[len(got)-1]
	require.Equal(t, agui.EventTypeRunFinished, last.EventType())

	var snap agui.ActivitySnapshot
	for _, e := range got {
		if s, ok := e.(agui.ActivitySnapshot); ok {
			snap = s
		}
	}
	stats := snap.Content.(SessionStats)
	assert.Equal(t, 12, stats.TotalThinkingTokens)
	assert.Equal(t, 2, stats.TotalToolCalls)

	// Distinct synthetic ids per thinking step.
	var thinkingIDs []string
	for _, e := range got {
		if s, ok := e.(agui.ToolCallStart); ok && s.ToolCallName == ThinkingToolName {
			thinkingIDs = append(thinkingIDs, s.ToolCallID)
		}
	}
	require.Len(t, thinkingIDs, 2)
	assert.NotEqual(t, thinkingIDs[0], thinkingIDs[1])
}

func TestTranslate_FullScenario(t *testing.T) {
	// Decoded from wire JSON so id defaulting applies, as in production.
	raw := []string{
		`{"content":{"parts":[{"text":"Hi"}]}}`,
		`{"content":{"parts":[{"function_call":{"name":"lookup","args":{"q":"x"}}}]}}`,
		`{"content":{"parts":[{"function_response":{"name":"lookup","response":{"ok":true}}}]}}`,
	}
	items := make([]engine.StreamEvent, len(raw))
	for i, line := range raw {
		var ev engine.Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		items[i] = engine.StreamEvent{Event: &ev}
	}

	got := translate(t, items...)

	assert.Equal(t, []agui.EventType{
		agui.EventTypeRunStarted,
		agui.EventTypeTextMessageStart,
		agui.EventTypeTextMessageContent,
		agui.EventTypeTextMessageEnd,
		agui.EventTypeToolCallStart,
		agui.EventTypeToolCallArgs,
		agui.EventTypeToolCallEnd,
		agui.EventTypeToolCallResult,
		agui.EventTypeActivitySnapshot,
		agui.EventTypeRunFinished,
	}, types(got))

	// The generated call id is fresh, non-empty, and shared by the triple.
	callStart := got[4].(agui.ToolCallStart)
	assert.NotEmpty(t, callStart.ToolCallID)
	assert.Equal(t, callStart.ToolCallID, got[5].(agui.ToolCallArgs).ToolCallID)
	assert.Equal(t, callStart.ToolCallID, got[6].(agui.ToolCallEnd).ToolCallID)

	stats := got[8].(agui.ActivitySnapshot).Content.(SessionStats)
	assert.Equal(t, 1, stats.TotalToolCalls)
}

func TestTranslate_UpstreamError(t *testing.T) {
	got := translate(t,
		textEvent("one"),
		textEvent("two"),
		engine.StreamEvent{Err: errors.New("connection lost")},
	)

	require.Equal(t, []agui.EventType{
		agui.EventTypeRunStarted,
		agui.EventTypeTextMessageStart,
		agui.EventTypeTextMessageContent,
		agui.EventTypeTextMessageContent,
		agui.EventTypeRunError,
	}, types(got))

	runErr := got[4].(agui.RunError)
	assert.Equal(t, "connection lost", runErr.Message)
	assert.Equal(t, ErrorCodeTranslation, runErr.Code)
}

func TestTranslate_Duration(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(1500 * time.Millisecond)
	}

	tr := New("t1", "r1", WithClock(clock))
	got := drain(tr.Translate(context.Background(), streamOf()))

	stats := got[1].(agui.ActivitySnapshot).Content.(SessionStats)
	assert.Equal(t, 1.5, stats.DurationSeconds)
}

func TestTranslate_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	upstream := make(chan engine.StreamEvent) // never closed, never fed

	tr := New("t1", "r1")
	out := tr.Translate(ctx, upstream)

	first, ok := <-out
	require.True(t, ok)
	assert.Equal(t, agui.EventTypeRunStarted, first.EventType())

	cancel()
	rest := drain(out)

	// No terminal event after cancellation; the consumer is gone.
	for _, e := range rest {
		assert.NotEqual(t, agui.EventTypeRunFinished, e.EventType())
		assert.NotEqual(t, agui.EventTypeRunError, e.EventType())
	}
}

func TestTranslate_DeadlineEmitsRunError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	upstream := make(chan engine.StreamEvent) // never closed, never fed

	tr := New("t1", "r1")
	got := drain(tr.Translate(ctx, upstream))

	// Unlike a disconnect, the deadline fires with the consumer still
	// draining, so the stream must terminate explicitly.
	require.NotEmpty(t, got)
	assert.Equal(t, agui.EventTypeRunStarted, got[0].EventType())

	last := got[len(got)-1]
	require.Equal(t, agui.EventTypeRunError, last.EventType())
	runErr := last.(agui.RunError)
	assert.Equal(t, ErrorCodeTranslation, runErr.Code)
	assert.Contains(t, runErr.Message, "deadline")
}

func TestNew_GeneratesIDs(t *testing.T) {
	tr := New("", "")
	assert.NotEmpty(t, tr.ThreadID())
	assert.NotEmpty(t, tr.RunID())
}

type recordingSink struct {
	mu       sync.Mutex
	thinking []ThinkingRecord
	stats    []SessionStats
}

func (s *recordingSink) AddThinking(threadID string, rec ThinkingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thinking = append(s.thinking, rec)
}

func (s *recordingSink) SetSessionStats(threadID string, stats SessionStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = append(s.stats, stats)
}

type panickingSink struct{}

func (panickingSink) AddThinking(string, ThinkingRecord)   { panic("sink down") }
func (panickingSink) SetSessionStats(string, SessionStats) { panic("sink down") }

func TestTranslate_MetadataSink(t *testing.T) {
	t.Run("records thinking and stats", func(t *testing.T) {
		sink := &recordingSink{}
		tr := New("t1", "r1", WithMetadataSink(sink))
		drain(tr.Translate(context.Background(), streamOf(thinkingEvent("x", 3, "m"))))

		require.Len(t, sink.thinking, 1)
		assert.Equal(t, 3, sink.thinking[0].ThoughtsTokenCount)
		require.Len(t, sink.stats, 1)
		assert.Equal(t, 3, sink.stats[0].TotalThinkingTokens)
	})

	t.Run("panicking sink does not abort the run", func(t *testing.T) {
		tr := New("t1", "r1", WithMetadataSink(panickingSink{}))
		got := drain(tr.Translate(context.Background(), streamOf(thinkingEvent("x", 3, "m"))))

		require.NotEmpty(t, got)
		assert.Equal(t, agui.EventTypeRunFinished, got[len(got)-1].EventType())
	})
}
