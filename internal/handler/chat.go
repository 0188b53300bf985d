package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/rickyrobinett/basic-chat/internal/backend"
	"github.com/rickyrobinett/basic-chat/internal/chat"
	"github.com/rickyrobinett/basic-chat/internal/httputil"
)

// Streamer invokes the inference backend in streaming mode.
type Streamer interface {
	Stream(ctx context.Context, messages []chat.Turn, maxTokens int) (<-chan backend.Event, error)
}

// ChatHandler relays conversations to the inference backend and re-emits
// the backend's incremental output as a flat token stream over the response
// body. It holds no state across requests.
type ChatHandler struct {
	backend   Streamer
	maxTokens int
	logger    *slog.Logger
}

// NewChatHandler creates a chat handler. maxTokens is the generation cap
// applied to every backend invocation.
func NewChatHandler(b Streamer, maxTokens int, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		backend:   b,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Chat handles POST /api/chat.
//
// The response is raw streamed text: the concatenation of generated tokens
// in emission order, no framing. Content-Encoding is forced to Identity so
// intermediate layers do not buffer or re-chunk the stream. Once streaming
// has begun, a mid-stream backend failure ends the stream with no marker a
// client could tell apart from a clean finish; the failure is logged here
// instead (see DESIGN.md).
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	requestID := httputil.GetRequestID(r)

	var req chat.Request
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stream, err := h.backend.Stream(r.Context(), req.ForwardMessages(), h.maxTokens)
	if err != nil {
		h.logger.Error("backend invocation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.RespondError(w, http.StatusBadGateway, "inference backend unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Encoding", "Identity")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for ev := range stream {
		if ev.Err != nil {
			h.logger.Error("backend stream ended early",
				"request_id", requestID,
				"error", ev.Err,
			)
			return
		}
		if _, err := io.WriteString(w, ev.Text); err != nil {
			h.logger.Debug("client disconnected mid-stream",
				"request_id", requestID,
				"error", err,
			)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// HealthCheck handles GET /health.
func (h *ChatHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
