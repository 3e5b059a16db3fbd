package stream

import (
	"context"
	"net/http"
	"strings"

	"github.com/yunxiao/lessonforge/backend/pkg/utils"
)

// sendSSE sends a Server-Sent Event, reporting the write failure.
func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) error {
	return utils.SendSSEChunk(w, flusher, response)
}

// sendSSEError sends an error via Server-Sent Events.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	_ = h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}

// sseProgressSurface renders the in-progress step over SSE.
type sseProgressSurface struct {
	handler   *Handler
	w         http.ResponseWriter
	flusher   http.Flusher
	sessionID string
}

func (s *sseProgressSurface) StreamToken(_ context.Context, token string) error {
	return s.handler.sendSSE(s.w, s.flusher, StreamResponse{
		Event:     "progress-delta",
		SessionID: s.sessionID,
		Content:   token,
	})
}

func (s *sseProgressSurface) SetLabel(_ context.Context, label string) error {
	return s.handler.sendSSE(s.w, s.flusher, StreamResponse{
		Event:     "progress-label",
		SessionID: s.sessionID,
		Content:   label,
	})
}

func (s *sseProgressSurface) Close(_ context.Context) error {
	return s.handler.sendSSE(s.w, s.flusher, StreamResponse{
		Event:     "progress-end",
		SessionID: s.sessionID,
	})
}

// sseFinalSurface renders the final answer over SSE while accumulating the
// full text for transcript storage.
type sseFinalSurface struct {
	handler   *Handler
	w         http.ResponseWriter
	flusher   http.Flusher
	sessionID string
	content   strings.Builder
}

func (s *sseFinalSurface) StreamToken(_ context.Context, token string) error {
	s.content.WriteString(token)
	return s.handler.sendSSE(s.w, s.flusher, StreamResponse{
		Event:     "final-delta",
		SessionID: s.sessionID,
		Content:   token,
	})
}

func (s *sseFinalSurface) Notify(_ context.Context, message string) error {
	return s.handler.sendSSE(s.w, s.flusher, StreamResponse{
		Event:     "notice",
		SessionID: s.sessionID,
		Content:   message,
	})
}

func (s *sseFinalSurface) Send(_ context.Context) error {
	return s.handler.sendSSE(s.w, s.flusher, StreamResponse{
		Event:     "final-message",
		SessionID: s.sessionID,
		Content:   s.content.String(),
	})
}

// Content returns the accumulated final answer text.
func (s *sseFinalSurface) Content() string {
	return s.content.String()
}
