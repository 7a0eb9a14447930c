// Package translator converts Agent Engine streaming events into the
// strictly ordered AG-UI event sequence the frontend requires.
//
// # Contract
//
// Create a new [Translator] for each run. The translator owns all
// cross-event state for that run: whether a text message is currently
// open, running counters of thinking tokens and tool calls, and the run
// start time. It is not safe for concurrent use and must not be reused
// across runs.
//
//	tr := translator.New(threadID, runID, translator.WithMetadataSink(store))
//	for ev := range tr.Translate(ctx, upstream) {
//	    writeSSE(ev)
//	}
//
// The output sequence always opens with RUN_STARTED and terminates with
// exactly one of RUN_FINISHED or RUN_ERROR. Between those, text messages
// are never interleaved with tool calls: an open message is closed before
// any tool call starts, and every synthetic thinking call resolves itself
// with a TOOL_CALL_RESULT in the same handler invocation so the frontend
// never waits on it.
//
// # Backpressure and Cancellation
//
// Emission is unbuffered: the translator fully drains one upstream
// event's emissions to the consumer before pulling the next, so a slow
// consumer naturally slows the upstream pull. When the consumer's context
// is cancelled the translator stops pulling and returns without a
// terminal event; the consumer is gone, there is nobody to terminate for.
// An expired deadline is different: the consumer is usually still
// draining, so the translator attempts one final RUN_ERROR before
// closing.
//
// # Metadata
//
// Thinking records and the final session statistics are forwarded to an
// optional [MetadataSink]. Sink writes are fire-and-forget: a panicking
// sink is logged and translation continues.
package translator
