package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatService "github.com/yunxiao/lessonforge/backend/internal/service/chat"
)

func newWebSocketTestServer(t *testing.T) (*httptest.Server, *chatService.Service) {
	t.Helper()
	svc := chatService.NewService()
	wsHandler := NewWebSocketHandler(New(nil, svc, nil, 0))

	r := chi.NewRouter()
	wsHandler.RegisterWebSocketRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, svc
}

func dialWebSocket(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketUnknownSessionRejectsUpgrade(t *testing.T) {
	server, _ := newWebSocketTestServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/missing"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail for unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", resp)
	}
}

func TestWebSocketInvalidTaskMessage(t *testing.T) {
	server, svc := newWebSocketTestServer(t)
	session, err := svc.CreateSession(context.Background(), "open-topic")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	conn := dialWebSocket(t, server, session.ID)
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write message: %v", err)
	}

	var reply outgoingMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply.Type != "error" || !strings.Contains(reply.Error, "invalid task message") {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.SessionID != session.ID {
		t.Fatalf("reply missing session id: %+v", reply)
	}
}

func TestWebSocketEmptyTaskRejected(t *testing.T) {
	server, svc := newWebSocketTestServer(t)
	session, err := svc.CreateSession(context.Background(), "open-topic")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	conn := dialWebSocket(t, server, session.ID)
	if err := conn.WriteJSON(inboundMessage{Type: "task", Content: "   "}); err != nil {
		t.Fatalf("write message: %v", err)
	}

	var reply outgoingMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply.Type != "error" || !strings.Contains(reply.Error, "non-empty task message") {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestWebSocketWrongMessageTypeRejected(t *testing.T) {
	server, svc := newWebSocketTestServer(t)
	session, err := svc.CreateSession(context.Background(), "open-topic")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	conn := dialWebSocket(t, server, session.ID)
	if err := conn.WriteJSON(inboundMessage{Type: "chat", Content: "静夜思"}); err != nil {
		t.Fatalf("write message: %v", err)
	}

	var reply outgoingMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply.Type != "error" || !strings.Contains(reply.Error, "non-empty task message") {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestWebSocketTaskWithoutTeamReportsError(t *testing.T) {
	server, svc := newWebSocketTestServer(t)
	session, err := svc.CreateSession(context.Background(), "open-topic")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	conn := dialWebSocket(t, server, session.ID)
	if err := conn.WriteJSON(inboundMessage{Type: "task", Content: "静夜思教学"}); err != nil {
		t.Fatalf("write message: %v", err)
	}

	var reply outgoingMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply.Type != "error" || !strings.Contains(reply.Error, "no team for profile") {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}
