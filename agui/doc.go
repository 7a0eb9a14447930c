// Package agui defines the AG-UI protocol events emitted by the bridge
// and the SSE wire encoding for them.
//
// AG-UI (Agent-User Interface) is an open, lightweight, event-based protocol
// that standardizes how AI agents connect to user-facing applications. The
// bridge speaks a fixed subset of the protocol: run lifecycle events, text
// message streaming, tool call streaming, and activity snapshots.
//
// # Event Union
//
// [Event] is a closed union. Every downstream event the bridge can produce
// is one of the concrete types in this package ([RunStarted],
// [TextMessageStart], [ToolCallResult], ...), each carrying exactly the
// wire fields for its discriminator. Construct events with the New*
// functions; the constructors fill in the type discriminator so a zero
// struct never leaks onto the wire.
//
// # Wire Encoding
//
// [EncodeSSE] serializes an event into an SSE frame:
//
//	data: {"type":"RUN_STARTED","threadId":"t1","runId":"r1"}\n\n
//
// Encoding is stateless and, for events built with the constructors,
// cannot fail.
//
// # Input
//
// [RunAgentInput] is the request body AG-UI frontends POST to start a run.
// Messages use the AG-UI SDK's message type so the bridge stays wire
// compatible with CopilotKit and the AG-UI Dojo.
package agui
