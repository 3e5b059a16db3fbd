package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/yunxiao/lessonforge/backend/internal/model/lesson"
	"github.com/yunxiao/lessonforge/backend/internal/service/orchestrator"
	"github.com/yunxiao/lessonforge/backend/internal/team"
)

// WebSocketHandler carries the same surface events as the SSE endpoint
// over a websocket, for frontends that prefer a duplex connection.
type WebSocketHandler struct {
	streamHandler *Handler
	upgrader      websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(streamHandler *Handler) *WebSocketHandler {
	return &WebSocketHandler{
		streamHandler: streamHandler,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接：读取一条任务消息，
// 流式回传两个输出面板的更新，运行结束后关闭连接。
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	session, err := h.streamHandler.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var inbound inboundMessage
	if err := conn.ReadJSON(&inbound); err != nil {
		h.writeError(conn, sessionID, fmt.Sprintf("invalid task message: %v", err))
		return
	}
	if inbound.Type != "task" || strings.TrimSpace(inbound.Content) == "" {
		h.writeError(conn, sessionID, "expected a non-empty task message")
		return
	}

	tm, ok := h.streamHandler.teams.ForProfile(session.ProfileID)
	if !ok {
		h.writeError(conn, sessionID, fmt.Sprintf("no team for profile %s", session.ProfileID))
		return
	}

	ctx := r.Context()
	if err := h.streamHandler.chatSvc.SaveMessage(ctx, lesson.Message{
		SessionID: sessionID,
		Sender:    team.UserRole,
		Content:   inbound.Content,
	}); err != nil {
		log.Printf("[ws] failed to save user message: %v", err)
	}

	progress := &wsSurface{conn: conn, sessionID: sessionID, prefix: "progress"}
	final := &wsSurface{conn: conn, sessionID: sessionID, prefix: "final"}

	orch := orchestrator.New(team.FinalRole, h.streamHandler.writer)
	if _, err := orch.Run(ctx, inbound.Content, engineAdapter{team: tm}, progress, final); err != nil {
		log.Printf("[ws] run failed for session=%s: %v", sessionID, err)
	}

	h.write(conn, outgoingMessage{Type: "end", SessionID: sessionID})
}

func (h *WebSocketHandler) write(conn *websocket.Conn, msg outgoingMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal ws message: %w", err)
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *WebSocketHandler) writeError(conn *websocket.Conn, sessionID, errMsg string) {
	if err := h.write(conn, outgoingMessage{Type: "error", SessionID: sessionID, Error: errMsg}); err != nil {
		log.Printf("[ws] failed to write error message: %v", err)
	}
}

// wsSurface implements both surface contracts over one websocket
// connection, distinguishing the two panels by event prefix. Writes are
// sequential because the orchestrator is single-threaded.
type wsSurface struct {
	conn      *websocket.Conn
	sessionID string
	prefix    string
	content   strings.Builder
}

func (s *wsSurface) send(msgType, content string) error {
	payload, err := json.Marshal(outgoingMessage{
		Type:      msgType,
		SessionID: s.sessionID,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal ws message: %w", err)
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *wsSurface) StreamToken(_ context.Context, token string) error {
	s.content.WriteString(token)
	return s.send(s.prefix+"-delta", token)
}

func (s *wsSurface) SetLabel(_ context.Context, label string) error {
	return s.send(s.prefix+"-label", label)
}

func (s *wsSurface) Close(_ context.Context) error {
	return s.send(s.prefix+"-end", "")
}

func (s *wsSurface) Notify(_ context.Context, message string) error {
	return s.send("notice", message)
}

func (s *wsSurface) Send(_ context.Context) error {
	return s.send(s.prefix+"-message", s.content.String())
}
