package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/yunxiao/lessonforge/backend/internal/model/lesson"
	chatService "github.com/yunxiao/lessonforge/backend/internal/service/chat"
	"github.com/yunxiao/lessonforge/backend/internal/service/orchestrator"
	"github.com/yunxiao/lessonforge/backend/internal/team"
	"github.com/yunxiao/lessonforge/backend/pkg/utils"
)

// Handler manages streaming lesson generation via Server-Sent Events.
type Handler struct {
	teams         *team.Registry
	chatSvc       *chatService.Service
	writer        orchestrator.Persister
	uploadTimeout time.Duration
}

// New creates a new stream handler. uploadTimeout bounds whole runs that
// consume converted upload content.
func New(teams *team.Registry, chatSvc *chatService.Service, writer orchestrator.Persister, uploadTimeout time.Duration) *Handler {
	return &Handler{
		teams:         teams,
		chatSvc:       chatSvc,
		writer:        writer,
		uploadTimeout: uploadTimeout,
	}
}

// StreamResponse represents a streaming response chunk.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// engineAdapter lets a team satisfy the orchestrator's Engine contract.
type engineAdapter struct {
	team *team.Team
}

func (e engineAdapter) Start(ctx context.Context, task string) orchestrator.EventSource {
	return e.team.Start(ctx, task)
}

// HandleGenerateRequest drives one generation run for a chat session,
// streaming both surfaces over SSE. An empty task consumes pending
// converted upload content instead.
func (h *Handler) HandleGenerateRequest(ctx context.Context, w http.ResponseWriter, sessionID, task string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	session, err := h.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("session not found: %v", err))
		return err
	}

	fromUpload := false
	if task == "" {
		pending, ok := h.chatSvc.TakePendingContent(ctx, sessionID)
		if !ok {
			h.sendSSEError(w, flusher, "message query parameter is required")
			return errors.New("empty task and no pending upload content")
		}
		task = pending
		fromUpload = true
	}

	tm, ok := h.teams.ForProfile(session.ProfileID)
	if !ok {
		h.sendSSEError(w, flusher, fmt.Sprintf("no team for profile %s", session.ProfileID))
		return fmt.Errorf("no team for profile %s", session.ProfileID)
	}

	if err := h.chatSvc.SaveMessage(ctx, lesson.Message{
		SessionID: sessionID,
		Sender:    team.UserRole,
		Content:   task,
	}); err != nil {
		log.Printf("[stream] failed to save user message: %v", err)
	}

	runCtx := ctx
	if fromUpload && h.uploadTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, h.uploadTimeout)
		defer cancel()
	}

	h.sendSSE(w, flusher, StreamResponse{Event: "start", SessionID: sessionID})

	progress := &sseProgressSurface{handler: h, w: w, flusher: flusher, sessionID: sessionID}
	final := &sseFinalSurface{handler: h, w: w, flusher: flusher, sessionID: sessionID}

	orch := orchestrator.New(team.FinalRole, h.writer)
	artifact, runErr := orch.Run(runCtx, task, engineAdapter{team: tm}, progress, final)

	if fromUpload && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		h.sendSSE(w, flusher, StreamResponse{
			Event:     "notice",
			SessionID: sessionID,
			Content:   "内容处理超时，请尝试减少文件数量或拆分为较小的请求。",
		})
	}

	if content := final.Content(); content != "" {
		if err := h.chatSvc.SaveMessage(ctx, lesson.Message{
			SessionID: sessionID,
			Sender:    "assistant",
			Content:   content,
		}); err != nil {
			log.Printf("[stream] failed to save assistant message: %v", err)
		}
	}

	h.sendSSE(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})

	if artifact != nil {
		log.Printf("[stream] completed run for session=%s, artifact=%s", sessionID, artifact.MarkdownPath)
	} else {
		log.Printf("[stream] completed run for session=%s without artifact", sessionID)
	}
	return runErr
}
