// Package engine provides the upstream side of the bridge: the data model
// for Google Agent Engine (Vertex AI Reasoning Engine) streaming events and
// a client for the streamQuery endpoint.
//
// # Data Model
//
// An [Event] is one decoded line of the upstream stream. Its content holds
// an ordered list of [Part] values - a closed union of [TextPart],
// [FunctionCallPart], and [FunctionResponsePart]. Decoding centralizes
// the protocol's defaulting rules: a function call or response without an
// id gets a freshly generated one, so downstream code never branches on
// missing identifiers.
//
// # Streaming
//
// [StreamClient.StreamQuery] opens an authenticated chunked HTTP stream
// and delivers decoded events over a channel:
//
//	client := engine.NewStreamClient(project, location, engineID, engine.GcloudTokenSource{})
//	stream, err := client.StreamQuery(ctx, "hello", "user-1")
//	if err != nil { ... }
//	for item := range stream {
//	    if item.Err != nil { ... }
//	    handle(item.Event)
//	}
//
// Malformed lines are discarded; a transport failure mid-stream is
// delivered as the final item's Err and closes the channel. Connection
// establishment is retried for transient failures; once the stream is
// open, nothing is retried.
package engine
