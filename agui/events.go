package agui

// EventType is the wire discriminator carried in every event's "type" field.
type EventType string

const (
	EventTypeRunStarted         EventType = "RUN_STARTED"
	EventTypeTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTypeTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTypeTextMessageEnd     EventType = "TEXT_MESSAGE_END"
	EventTypeToolCallStart      EventType = "TOOL_CALL_START"
	EventTypeToolCallArgs       EventType = "TOOL_CALL_ARGS"
	EventTypeToolCallEnd        EventType = "TOOL_CALL_END"
	EventTypeToolCallResult     EventType = "TOOL_CALL_RESULT"
	EventTypeActivitySnapshot   EventType = "ACTIVITY_SNAPSHOT"
	EventTypeRunFinished        EventType = "RUN_FINISHED"
	EventTypeRunError           EventType = "RUN_ERROR"
)

// Role constants matching the AG-UI protocol.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// ActivityTypeSessionStats is the activity discriminator for the one-shot
// session statistics snapshot emitted at the end of a successful run.
const ActivityTypeSessionStats = "SESSION_STATS"

// Event is the closed union of downstream protocol events. Only the types
// in this package implement it.
type Event interface {
	EventType() EventType
	aguiEvent()
}

func (e RunStarted) EventType() EventType         { return e.Type }
func (e TextMessageStart) EventType() EventType   { return e.Type }
func (e TextMessageContent) EventType() EventType { return e.Type }
func (e TextMessageEnd) EventType() EventType     { return e.Type }
func (e ToolCallStart) EventType() EventType      { return e.Type }
func (e ToolCallArgs) EventType() EventType       { return e.Type }
func (e ToolCallEnd) EventType() EventType        { return e.Type }
func (e ToolCallResult) EventType() EventType     { return e.Type }
func (e ActivitySnapshot) EventType() EventType   { return e.Type }
func (e RunFinished) EventType() EventType        { return e.Type }
func (e RunError) EventType() EventType           { return e.Type }

func (RunStarted) aguiEvent()         {}
func (TextMessageStart) aguiEvent()   {}
func (TextMessageContent) aguiEvent() {}
func (TextMessageEnd) aguiEvent()     {}
func (ToolCallStart) aguiEvent()      {}
func (ToolCallArgs) aguiEvent()       {}
func (ToolCallEnd) aguiEvent()        {}
func (ToolCallResult) aguiEvent()     {}
func (ActivitySnapshot) aguiEvent()   {}
func (RunFinished) aguiEvent()        {}
func (RunError) aguiEvent()           {}

// RunStarted is always the first event of a run's output.
type RunStarted struct {
	Type     EventType `json:"type"`
	ThreadID string    `json:"threadId"`
	RunID    string    `json:"runId"`
}

// NewRunStarted creates a RUN_STARTED event.
func NewRunStarted(threadID, runID string) RunStarted {
	return RunStarted{Type: EventTypeRunStarted, ThreadID: threadID, RunID: runID}
}

// TextMessageStart opens a streamed assistant message.
type TextMessageStart struct {
	Type      EventType `json:"type"`
	MessageID string    `json:"messageId"`
	Role      string    `json:"role"`
}

// NewTextMessageStart creates a TEXT_MESSAGE_START event.
func NewTextMessageStart(messageID, role string) TextMessageStart {
	return TextMessageStart{Type: EventTypeTextMessageStart, MessageID: messageID, Role: role}
}

// TextMessageContent carries one streamed chunk of an open message.
type TextMessageContent struct {
	Type      EventType `json:"type"`
	MessageID string    `json:"messageId"`
	Delta     string    `json:"delta"`
}

// NewTextMessageContent creates a TEXT_MESSAGE_CONTENT event.
func NewTextMessageContent(messageID, delta string) TextMessageContent {
	return TextMessageContent{Type: EventTypeTextMessageContent, MessageID: messageID, Delta: delta}
}

// TextMessageEnd closes a streamed message.
type TextMessageEnd struct {
	Type      EventType `json:"type"`
	MessageID string    `json:"messageId"`
}

// NewTextMessageEnd creates a TEXT_MESSAGE_END event.
func NewTextMessageEnd(messageID string) TextMessageEnd {
	return TextMessageEnd{Type: EventTypeTextMessageEnd, MessageID: messageID}
}

// ToolCallStart announces a tool invocation.
type ToolCallStart struct {
	Type         EventType `json:"type"`
	ToolCallID   string    `json:"toolCallId"`
	ToolCallName string    `json:"toolCallName"`
}

// NewToolCallStart creates a TOOL_CALL_START event.
func NewToolCallStart(toolCallID, toolCallName string) ToolCallStart {
	return ToolCallStart{Type: EventTypeToolCallStart, ToolCallID: toolCallID, ToolCallName: toolCallName}
}

// ToolCallArgs streams the JSON-encoded arguments of a tool call.
type ToolCallArgs struct {
	Type       EventType `json:"type"`
	ToolCallID string    `json:"toolCallId"`
	Delta      string    `json:"delta"`
}

// NewToolCallArgs creates a TOOL_CALL_ARGS event.
func NewToolCallArgs(toolCallID, delta string) ToolCallArgs {
	return ToolCallArgs{Type: EventTypeToolCallArgs, ToolCallID: toolCallID, Delta: delta}
}

// ToolCallEnd marks the end of a tool call's argument stream.
type ToolCallEnd struct {
	Type       EventType `json:"type"`
	ToolCallID string    `json:"toolCallId"`
}

// NewToolCallEnd creates a TOOL_CALL_END event.
func NewToolCallEnd(toolCallID string) ToolCallEnd {
	return ToolCallEnd{Type: EventTypeToolCallEnd, ToolCallID: toolCallID}
}

// ToolCallResult delivers the result of a tool call as a tool-role message.
type ToolCallResult struct {
	Type       EventType `json:"type"`
	MessageID  string    `json:"messageId"`
	ToolCallID string    `json:"toolCallId"`
	Content    string    `json:"content"`
	Role       string    `json:"role"`
}

// NewToolCallResult creates a TOOL_CALL_RESULT event.
func NewToolCallResult(messageID, toolCallID, content string) ToolCallResult {
	return ToolCallResult{
		Type:       EventTypeToolCallResult,
		MessageID:  messageID,
		ToolCallID: toolCallID,
		Content:    content,
		Role:       RoleTool,
	}
}

// ActivitySnapshot is a one-shot summary carrying aggregated counters.
// Replace tells the frontend to overwrite any previous snapshot with the
// same message ID rather than append.
type ActivitySnapshot struct {
	Type         EventType `json:"type"`
	MessageID    string    `json:"messageId"`
	ActivityType string    `json:"activityType"`
	Content      any       `json:"content"`
	Replace      bool      `json:"replace"`
}

// NewActivitySnapshot creates an ACTIVITY_SNAPSHOT event.
func NewActivitySnapshot(messageID, activityType string, content any) ActivitySnapshot {
	return ActivitySnapshot{
		Type:         EventTypeActivitySnapshot,
		MessageID:    messageID,
		ActivityType: activityType,
		Content:      content,
		Replace:      true,
	}
}

// RunFinished terminates a successful run. Mutually exclusive with RunError.
type RunFinished struct {
	Type     EventType `json:"type"`
	ThreadID string    `json:"threadId"`
	RunID    string    `json:"runId"`
}

// NewRunFinished creates a RUN_FINISHED event.
func NewRunFinished(threadID, runID string) RunFinished {
	return RunFinished{Type: EventTypeRunFinished, ThreadID: threadID, RunID: runID}
}

// RunError terminates a failed run. Mutually exclusive with RunFinished.
type RunError struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
	Code    string    `json:"code"`
}

// NewRunError creates a RUN_ERROR event.
func NewRunError(message, code string) RunError {
	return RunError{Type: EventTypeRunError, Message: message, Code: code}
}
