package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ModelUnknown is the fallback for a missing model identifier.
const ModelUnknown = "unknown"

// NameUnknown is the fallback for a missing tool name.
const NameUnknown = "unknown"

// Event is one decoded Agent Engine streaming event.
type Event struct {
	Author        string         `json:"author,omitempty"`
	Content       Content        `json:"content"`
	UsageMetadata *UsageMetadata `json:"usage_metadata,omitempty"`
	ModelVersion  string         `json:"model_version,omitempty"`
}

// Model returns the model identifier, or ModelUnknown when absent.
func (e *Event) Model() string {
	if e == nil || e.ModelVersion == "" {
		return ModelUnknown
	}
	return e.ModelVersion
}

// Usage returns the event's usage metadata, never nil.
func (e *Event) Usage() *UsageMetadata {
	if e == nil {
		return nil
	}
	return e.UsageMetadata
}

// Content holds the ordered part list of an event.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// UnmarshalJSON decodes the part list through the Part union. Parts with
// an unrecognized shape are dropped; the rest of the event stays usable.
func (c *Content) UnmarshalJSON(data []byte) error {
	var tmp struct {
		Role  string            `json:"role"`
		Parts []json.RawMessage `json:"parts"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}

	c.Role = tmp.Role
	c.Parts = make([]Part, 0, len(tmp.Parts))
	for _, raw := range tmp.Parts {
		part, err := UnmarshalPart(raw)
		if err != nil {
			if errors.Is(err, ErrUnknownPart) {
				continue
			}
			return err
		}
		c.Parts = append(c.Parts, part)
	}
	return nil
}

// UsageMetadata carries the token accounting attached to an event.
// All counts default to zero when the upstream omits them.
type UsageMetadata struct {
	ThoughtsTokenCount   int `json:"thoughts_token_count"`
	TotalTokenCount      int `json:"total_token_count"`
	CandidatesTokenCount int `json:"candidates_token_count"`
	PromptTokenCount     int `json:"prompt_token_count"`
}

// Thoughts returns the thinking token count, zero on a nil receiver.
func (u *UsageMetadata) Thoughts() int {
	if u == nil {
		return 0
	}
	return u.ThoughtsTokenCount
}

// Total returns the total token count, zero on a nil receiver.
func (u *UsageMetadata) Total() int {
	if u == nil {
		return 0
	}
	return u.TotalTokenCount
}

// Candidates returns the candidate token count, zero on a nil receiver.
func (u *UsageMetadata) Candidates() int {
	if u == nil {
		return 0
	}
	return u.CandidatesTokenCount
}

// Prompt returns the prompt token count, zero on a nil receiver.
func (u *UsageMetadata) Prompt() int {
	if u == nil {
		return 0
	}
	return u.PromptTokenCount
}

// Part represents one unit inside an event's content: text, a function
// call, or a function response. The union is closed; translation matches
// it exhaustively.
type Part interface {
	partMarker()
}

// TextPart is a chunk of streamed text. ThoughtSignature is set when the
// upstream flagged the chunk as reasoning output.
type TextPart struct {
	Text             string
	ThoughtSignature bool
}

func (TextPart) partMarker() {}

// FunctionCallPart is a tool invocation requested by the agent.
// ID and Name are never empty after decoding.
type FunctionCallPart struct {
	ID   string
	Name string
	Args map[string]any
}

func (FunctionCallPart) partMarker() {}

// FunctionResponsePart is the result of a previously requested tool call.
// ID and Name are never empty after decoding.
type FunctionResponsePart struct {
	ID       string
	Name     string
	Response map[string]any
}

func (FunctionResponsePart) partMarker() {}

// ErrUnknownPart is returned by UnmarshalPart for part shapes outside the
// union.
var ErrUnknownPart = errors.New("unknown part shape")

type functionCallBody struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type functionResponseBody struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// UnmarshalPart decodes a raw part into the Part union. Missing ids are
// replaced with freshly generated ones and missing names default to
// "unknown", so handlers downstream never see an absent identifier.
func UnmarshalPart(raw json.RawMessage) (Part, error) {
	var probe struct {
		Text             *string               `json:"text"`
		ThoughtSignature json.RawMessage       `json:"thought_signature"`
		FunctionCall     *functionCallBody     `json:"function_call"`
		FunctionResponse *functionResponseBody `json:"function_response"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode part: %w", err)
	}

	switch {
	case probe.Text != nil:
		return TextPart{
			Text:             *probe.Text,
			ThoughtSignature: probe.ThoughtSignature != nil,
		}, nil

	case probe.FunctionCall != nil:
		return FunctionCallPart{
			ID:   orGeneratedID(probe.FunctionCall.ID),
			Name: orUnknown(probe.FunctionCall.Name),
			Args: probe.FunctionCall.Args,
		}, nil

	case probe.FunctionResponse != nil:
		return FunctionResponsePart{
			ID:       orGeneratedID(probe.FunctionResponse.ID),
			Name:     orUnknown(probe.FunctionResponse.Name),
			Response: probe.FunctionResponse.Response,
		}, nil

	default:
		return nil, ErrUnknownPart
	}
}

func orGeneratedID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

func orUnknown(name string) string {
	if name != "" {
		return name
	}
	return NameUnknown
}
