package agui

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
)

func strPtr(s string) *string {
	return &s
}

func msg(role string, content *string) Message {
	return Message{events.Message{Role: role, Content: content}}
}

func TestRunAgentInput_Prepare(t *testing.T) {
	t.Run("keeps provided IDs", func(t *testing.T) {
		input := RunAgentInput{
			ThreadID: "thread-1",
			RunID:    "run-1",
			Messages: []Message{msg(RoleUser, strPtr("hello"))},
		}
		prepared, err := input.Prepare()
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if prepared.ThreadID != "thread-1" || prepared.RunID != "run-1" {
			t.Errorf("ids not preserved: %+v", prepared)
		}
		if prepared.UserMessage != "hello" {
			t.Errorf("expected user message 'hello', got %q", prepared.UserMessage)
		}
	})

	t.Run("generates missing IDs", func(t *testing.T) {
		input := RunAgentInput{
			Messages: []Message{msg(RoleUser, strPtr("hi"))},
		}
		prepared, err := input.Prepare()
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if prepared.ThreadID == "" {
			t.Error("expected generated thread ID")
		}
		if prepared.RunID == "" {
			t.Error("expected generated run ID")
		}
	})

	t.Run("picks most recent user message with content", func(t *testing.T) {
		input := RunAgentInput{
			Messages: []Message{
				msg(RoleSystem, strPtr("be helpful")),
				msg(RoleUser, strPtr("earlier question")),
				msg(RoleAssistant, strPtr("previous answer")),
				msg(RoleUser, strPtr("followup question")),
				msg(RoleUser, strPtr("")),
			},
		}
		prepared, err := input.Prepare()
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if prepared.UserMessage != "followup question" {
			t.Errorf("expected 'followup question', got %q", prepared.UserMessage)
		}
	})

	t.Run("no user message", func(t *testing.T) {
		input := RunAgentInput{
			Messages: []Message{
				msg(RoleAssistant, strPtr("hello")),
				msg(RoleUser, nil),
			},
		}
		_, err := input.Prepare()
		if !errors.Is(err, ErrNoUserMessage) {
			t.Errorf("expected ErrNoUserMessage, got %v", err)
		}
	})
}

func TestRunAgentInput_Decode(t *testing.T) {
	t.Run("string content", func(t *testing.T) {
		raw := `{
			"thread_id": "t1",
			"run_id": "r1",
			"messages": [{"id": "m1", "role": "user", "content": "plain text"}]
		}`
		var input RunAgentInput
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		prepared, err := input.Prepare()
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if prepared.UserMessage != "plain text" {
			t.Errorf("expected 'plain text', got %q", prepared.UserMessage)
		}
	})

	t.Run("multimodal list content", func(t *testing.T) {
		raw := `{
			"thread_id": "t1",
			"messages": [{
				"id": "m1",
				"role": "user",
				"content": [
					{"type": "image", "url": "https://example.com/a.png"},
					{"type": "text", "text": "describe this image"},
					{"type": "text", "text": "ignored second part"}
				]
			}]
		}`
		var input RunAgentInput
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		prepared, err := input.Prepare()
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if prepared.UserMessage != "describe this image" {
			t.Errorf("expected first text part, got %q", prepared.UserMessage)
		}
	})

	t.Run("list content without text parts", func(t *testing.T) {
		raw := `{
			"messages": [{
				"id": "m1",
				"role": "user",
				"content": [{"type": "image", "url": "https://example.com/a.png"}]
			}]
		}`
		var input RunAgentInput
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if _, err := input.Prepare(); !errors.Is(err, ErrNoUserMessage) {
			t.Errorf("expected ErrNoUserMessage, got %v", err)
		}
	})

	t.Run("mixed string and list messages", func(t *testing.T) {
		raw := `{
			"messages": [
				{"id": "m1", "role": "user", "content": "first turn"},
				{"id": "m2", "role": "assistant", "content": "answer"},
				{"id": "m3", "role": "user", "content": [{"type": "text", "text": "second turn"}]}
			]
		}`
		var input RunAgentInput
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		prepared, err := input.Prepare()
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if prepared.UserMessage != "second turn" {
			t.Errorf("expected 'second turn', got %q", prepared.UserMessage)
		}
	})
}
