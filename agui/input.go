package agui

import (
	"encoding/json"
	"errors"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
)

// Message is an AG-UI input message. On the wire, content is either a
// plain string or a multimodal part list
// ([{"type":"text","text":...}, ...]); list content collapses to its
// first text part so the rest of the bridge only ever sees string
// content.
type Message struct {
	events.Message
}

// UnmarshalJSON decodes the plain-string form directly and falls back to
// the part-list form.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain events.Message
	var p plain
	strErr := json.Unmarshal(data, &p)
	if strErr == nil {
		m.Message = events.Message(p)
		return nil
	}

	var probe struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return strErr
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return strErr
	}
	delete(fields, "content")
	rest, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(rest, &p); err != nil {
		return err
	}

	for _, part := range probe.Content {
		if part.Type == "text" {
			text := part.Text
			p.Content = &text
			break
		}
	}

	m.Message = events.Message(p)
	return nil
}

// RunAgentInput represents the AG-UI protocol request for running an agent.
// This mirrors the AG-UI protocol specification and is transport-agnostic.
type RunAgentInput struct {
	ThreadID       string    `json:"thread_id"`
	RunID          string    `json:"run_id"`
	Messages       []Message `json:"messages"`
	Tools          []any     `json:"tools,omitempty"`
	Context        []any     `json:"context,omitempty"`
	State          any       `json:"state,omitempty"`
	ForwardedProps any       `json:"forwarded_props,omitempty"`
}

// PreparedInput contains validated input ready for a bridge run.
type PreparedInput struct {
	ThreadID    string
	RunID       string
	UserMessage string
}

// ErrNoUserMessage is returned when the input contains no user message.
var ErrNoUserMessage = errors.New("no user message provided")

// Prepare validates the input and fills in generated thread and run IDs
// when the frontend omitted them. The most recent user message wins.
// Returns ErrNoUserMessage if no message with the user role carries
// content.
func (r *RunAgentInput) Prepare() (*PreparedInput, error) {
	threadID := r.ThreadID
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	runID := r.RunID
	if runID == "" {
		runID = events.GenerateRunID()
	}

	userMessage := ""
	for _, msg := range r.Messages {
		if msg.Role != RoleUser || msg.Content == nil {
			continue
		}
		if *msg.Content != "" {
			userMessage = *msg.Content
		}
	}
	if userMessage == "" {
		return nil, ErrNoUserMessage
	}

	return &PreparedInput{
		ThreadID:    threadID,
		RunID:       runID,
		UserMessage: userMessage,
	}, nil
}
