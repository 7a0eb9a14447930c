package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"aguibridge/agui"
	"aguibridge/engine"
	"aguibridge/metadata"
	"aguibridge/translator"
)

// ChatHandler bridges POST /chat to the Agent Engine stream, translating
// events to AG-UI over SSE.
type ChatHandler struct {
	engine *engine.StreamClient
	store  *metadata.Store
	config *Config
}

// NewChatHandler creates a handler for the given stream client and store.
func NewChatHandler(client *engine.StreamClient, store *metadata.Store, cfg *Config) *ChatHandler {
	return &ChatHandler{engine: client, store: store, config: cfg}
}

// ServeHTTP runs one translation run per request.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var input agui.RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		slog.Warn("invalid request body", "error", err)
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	prepared, err := input.Prepare()
	if err != nil {
		slog.Warn("invalid input", "error", err)
		writeErrorStream(w, "No user message found", "INVALID_INPUT")
		return
	}

	log := slog.With("thread_id", prepared.ThreadID, "run_id", prepared.RunID)
	log.Info("request started", "message_count", len(input.Messages))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.StreamTimeout)
	defer cancel()

	stream, err := h.engine.StreamQuery(ctx, prepared.UserMessage, engine.DefaultUserID)
	if err != nil {
		log.Error("failed to open upstream stream", "error", err)
		// The run contract still holds: terminate with RUN_ERROR.
		agui.WriteSSE(w, agui.NewRunError(err.Error(), "STREAM_ERROR"))
		flusher.Flush()
		return
	}

	tr := translator.New(prepared.ThreadID, prepared.RunID,
		translator.WithMetadataSink(h.store),
		translator.WithLogger(log),
	)

	var eventCount int
	for ev := range tr.Translate(ctx, stream) {
		eventCount++
		if err := agui.WriteSSE(w, ev); err != nil {
			log.Error("failed to write SSE event", "error", err, "event_type", ev.EventType())
			return
		}
		flusher.Flush()
	}

	log.Info("request completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"events_sent", eventCount,
	)
}

// writeErrorStream returns a single RUN_ERROR frame; AG-UI clients expect
// an event stream even for rejected runs.
func writeErrorStream(w http.ResponseWriter, message, code string) {
	w.Header().Set("Content-Type", "text/event-stream")
	agui.WriteSSE(w, agui.NewRunError(message, code))
}

// MetadataHandler serves stored thinking records and session statistics
// for a thread, via GET /metadata/{threadId}.
func MetadataHandler(store *metadata.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threadID := r.PathValue("threadId")
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(store.Metadata(threadID)); err != nil {
			slog.Warn("failed to encode metadata", "thread_id", threadID, "error", err)
		}
	}
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy"}`))
}

// rootHandler describes the service and its endpoints.
func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"service": "AG-UI to Agent Engine bridge",
		"endpoints": map[string]string{
			"/chat":                "POST - Chat with the agent (AG-UI SSE)",
			"/metadata/{threadId}": "GET - Thinking records and session stats for a thread",
			"/health":              "GET - Health check",
		},
	})
}
