package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"aguibridge/agui"
	"aguibridge/engine"
)

// ErrorCodeTranslation is the RUN_ERROR code for any failure surfaced
// during translation, upstream transport errors included.
const ErrorCodeTranslation = "TRANSLATION_ERROR"

// ThinkingToolName is the synthetic tool call name used to render
// reasoning steps.
const ThinkingToolName = "thinking_step"

const (
	statusInProgress = "in_progress"
	statusComplete   = "complete"
)

// thinkingCompleteContent marks a synthetic thinking call as resolved so
// the frontend never re-dispatches it.
const thinkingCompleteContent = `{"status":"` + statusComplete + `"}`

// Translator maps one run's upstream events to AG-UI events. Create one
// per run with New; it is not safe for concurrent use.
type Translator struct {
	threadID string
	runID    string
	sink     MetadataSink
	log      *slog.Logger
	now      func() time.Time

	// Per-run state, owned exclusively by this translator.
	openMessageID  string
	thinkingTokens int
	toolCalls      int
	startTime      time.Time
}

// Option configures a Translator.
type Option func(*Translator)

// WithMetadataSink sets the side-channel sink for thinking records and
// session statistics. A nil sink disables metadata writes.
func WithMetadataSink(sink MetadataSink) Option {
	return func(t *Translator) {
		t.sink = sink
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(t *Translator) {
		t.log = log
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Translator) {
		t.now = now
	}
}

// New creates a Translator for a single run. Empty thread or run IDs are
// replaced with generated ones.
func New(threadID, runID string, opts ...Option) *Translator {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	t := &Translator{
		threadID: threadID,
		runID:    runID,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ThreadID returns the thread ID for this run.
func (t *Translator) ThreadID() string {
	return t.threadID
}

// RunID returns the run ID for this run.
func (t *Translator) RunID() string {
	return t.runID
}

// Translate consumes the upstream sequence and returns a channel of
// AG-UI events. The channel is finite, single-consumption, and closes
// after the terminal event. Emission is unbuffered; the consumer's read
// pace is the upstream pull pace.
func (t *Translator) Translate(ctx context.Context, upstream <-chan engine.StreamEvent) <-chan agui.Event {
	out := make(chan agui.Event)
	go func() {
		defer close(out)
		err := t.run(ctx, upstream, out)
		if err == nil {
			return
		}
		if errors.Is(err, context.Canceled) {
			// Consumer stopped draining; no terminal event to deliver.
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			// The run deadline fired while the consumer is usually
			// still connected, so the termination guarantee holds:
			// deliver RUN_ERROR if anyone is there to receive it.
			t.log.Warn("run deadline exceeded", "thread_id", t.threadID, "run_id", t.runID)
			select {
			case out <- agui.NewRunError(err.Error(), ErrorCodeTranslation):
			default:
			}
			return
		}
		t.log.Error("translation failed", "thread_id", t.threadID, "run_id", t.runID, "error", err)
		t.emit(ctx, out, agui.NewRunError(err.Error(), ErrorCodeTranslation))
	}()
	return out
}

func (t *Translator) run(ctx context.Context, upstream <-chan engine.StreamEvent, out chan<- agui.Event) error {
	t.startTime = t.now()
	t.openMessageID = ""
	t.thinkingTokens = 0
	t.toolCalls = 0

	if err := t.emit(ctx, out, agui.NewRunStarted(t.threadID, t.runID)); err != nil {
		return err
	}

	for {
		var item engine.StreamEvent
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok = <-upstream:
		}
		if !ok {
			break
		}
		if item.Err != nil {
			return item.Err
		}
		if err := t.translateEvent(ctx, out, item.Event); err != nil {
			return err
		}
	}

	return t.finish(ctx, out)
}

// translateEvent dispatches each part of one upstream event in array
// order. All emissions for one part complete before the next part is
// considered.
func (t *Translator) translateEvent(ctx context.Context, out chan<- agui.Event, ev *engine.Event) error {
	if ev == nil {
		return nil
	}
	for _, part := range ev.Content.Parts {
		var err error
		switch p := part.(type) {
		case engine.TextPart:
			err = t.handleText(ctx, out, p, ev)
		case engine.FunctionCallPart:
			err = t.handleFunctionCall(ctx, out, p)
		case engine.FunctionResponsePart:
			err = t.handleFunctionResponse(ctx, out, p)
		default:
			err = fmt.Errorf("unhandled part type %T", part)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// handleText processes a text part. A thinking-flagged part renders as a
// self-resolving synthetic tool call before any text; plain text streams
// into the open message, opening one if needed. The message is left open
// for further chunks.
func (t *Translator) handleText(ctx context.Context, out chan<- agui.Event, p engine.TextPart, ev *engine.Event) error {
	if p.Text == "" {
		return nil
	}

	if p.ThoughtSignature {
		usage := ev.Usage()
		rec := ThinkingRecord{
			Status:               statusInProgress,
			ThoughtsTokenCount:   usage.Thoughts(),
			TotalTokenCount:      usage.Total(),
			CandidatesTokenCount: usage.Candidates(),
			PromptTokenCount:     usage.Prompt(),
			Model:                ev.Model(),
		}
		// Marshal before any emission so a failing part emits nothing.
		args, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal thinking args: %w", err)
		}

		// Thinking renders as a distinct unit, never inside a text message.
		if err := t.closeOpenMessage(ctx, out); err != nil {
			return err
		}

		toolCallID := events.GenerateToolCallID()
		for _, e := range []agui.Event{
			agui.NewToolCallStart(toolCallID, ThinkingToolName),
			agui.NewToolCallArgs(toolCallID, string(args)),
			agui.NewToolCallEnd(toolCallID),
			agui.NewToolCallResult(events.GenerateMessageID(), toolCallID, thinkingCompleteContent),
		} {
			if err := t.emit(ctx, out, e); err != nil {
				return err
			}
		}

		// Synthetic calls count toward thinking tokens, not tool calls.
		t.thinkingTokens += usage.Thoughts()
		t.forwardThinking(rec)
	}

	if t.openMessageID == "" {
		t.openMessageID = events.GenerateMessageID()
		if err := t.emit(ctx, out, agui.NewTextMessageStart(t.openMessageID, agui.RoleAssistant)); err != nil {
			return err
		}
	}

	// No TEXT_MESSAGE_END here; the message stays open for streaming.
	return t.emit(ctx, out, agui.NewTextMessageContent(t.openMessageID, p.Text))
}

// handleFunctionCall processes a genuine tool invocation. The result is
// expected later as a function response part.
func (t *Translator) handleFunctionCall(ctx context.Context, out chan<- agui.Event, p engine.FunctionCallPart) error {
	args, err := json.Marshal(p.Args)
	if err != nil {
		return fmt.Errorf("marshal args for tool %q: %w", p.Name, err)
	}

	if err := t.closeOpenMessage(ctx, out); err != nil {
		return err
	}

	t.toolCalls++

	for _, e := range []agui.Event{
		agui.NewToolCallStart(p.ID, p.Name),
		agui.NewToolCallArgs(p.ID, string(args)),
		agui.NewToolCallEnd(p.ID),
	} {
		if err := t.emit(ctx, out, e); err != nil {
			return err
		}
	}
	return nil
}

// handleFunctionResponse processes a tool result. Open-message state is
// unaffected.
func (t *Translator) handleFunctionResponse(ctx context.Context, out chan<- agui.Event, p engine.FunctionResponsePart) error {
	content, err := json.Marshal(p.Response)
	if err != nil {
		return fmt.Errorf("marshal response for tool %q: %w", p.Name, err)
	}
	return t.emit(ctx, out, agui.NewToolCallResult(events.GenerateMessageID(), p.ID, string(content)))
}

// finish emits the session statistics snapshot, closes any open message,
// and terminates the run. The snapshot deliberately precedes the trailing
// TEXT_MESSAGE_END.
func (t *Translator) finish(ctx context.Context, out chan<- agui.Event) error {
	stats := SessionStats{
		TotalThinkingTokens: t.thinkingTokens,
		TotalToolCalls:      t.toolCalls,
		DurationSeconds:     roundHundredths(t.now().Sub(t.startTime).Seconds()),
		ThreadID:            t.threadID,
		RunID:               t.runID,
	}

	snapshotID := fmt.Sprintf("session-stats-%s-%s", t.threadID, t.runID)
	if err := t.emit(ctx, out, agui.NewActivitySnapshot(snapshotID, agui.ActivityTypeSessionStats, stats)); err != nil {
		return err
	}
	t.forwardStats(stats)

	t.log.Info("run complete",
		"thread_id", t.threadID,
		"run_id", t.runID,
		"thinking_tokens", stats.TotalThinkingTokens,
		"tool_calls", stats.TotalToolCalls,
		"duration_seconds", stats.DurationSeconds,
	)

	if err := t.closeOpenMessage(ctx, out); err != nil {
		return err
	}
	return t.emit(ctx, out, agui.NewRunFinished(t.threadID, t.runID))
}

// closeOpenMessage emits TEXT_MESSAGE_END for the open message, if any.
func (t *Translator) closeOpenMessage(ctx context.Context, out chan<- agui.Event) error {
	if t.openMessageID == "" {
		return nil
	}
	id := t.openMessageID
	t.openMessageID = ""
	return t.emit(ctx, out, agui.NewTextMessageEnd(id))
}

// emit delivers one event to the consumer, honoring cancellation.
func (t *Translator) emit(ctx context.Context, out chan<- agui.Event, e agui.Event) error {
	select {
	case out <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// forwardThinking writes a thinking record to the sink, best effort.
func (t *Translator) forwardThinking(rec ThinkingRecord) {
	if t.sink == nil {
		return
	}
	defer t.recoverSink("add thinking")
	t.sink.AddThinking(t.threadID, rec)
}

// forwardStats writes session statistics to the sink, best effort.
func (t *Translator) forwardStats(stats SessionStats) {
	if t.sink == nil {
		return
	}
	defer t.recoverSink("set session stats")
	t.sink.SetSessionStats(t.threadID, stats)
}

// recoverSink keeps sink failures out of translation control flow.
func (t *Translator) recoverSink(op string) {
	if r := recover(); r != nil {
		t.log.Warn("metadata sink failed", "op", op, "thread_id", t.threadID, "panic", r)
	}
}

// roundHundredths matches the snapshot's two-decimal duration precision.
func roundHundredths(v float64) float64 {
	return math.Round(v*100) / 100
}
