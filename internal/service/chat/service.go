package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yunxiao/lessonforge/backend/internal/model/lesson"
)

var (
	ErrProfileRequired = errors.New("profile id is required")
	ErrSessionNotFound = errors.New("session not found")
)

// Service encapsulates conversation state management. Sessions are
// independent; the only cross-session resource is the artifact directory,
// which is append-safe.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]lesson.Session
	messages map[string][]lesson.Message
	pending  map[string]string
}

// NewService bootstraps the in-memory chat service suitable for early iterations.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]lesson.Session),
		messages: make(map[string][]lesson.Message),
		pending:  make(map[string]string),
	}
}

// CreateSession provisions an anonymous session bound to a generation profile.
func (s *Service) CreateSession(_ context.Context, profileID string) (lesson.Session, error) {
	if profileID == "" {
		return lesson.Session{}, ErrProfileRequired
	}

	session := lesson.Session{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]lesson.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// SaveMessage appends a message to the session history.
func (s *Service) SaveMessage(_ context.Context, message lesson.Message) error {
	if message.SessionID == "" {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	return nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (lesson.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return lesson.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]lesson.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]lesson.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// SetPendingContent stores converted upload content awaiting the next
// generation run for the session.
func (s *Service) SetPendingContent(_ context.Context, sessionID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	s.pending[sessionID] = content
	return nil
}

// TakePendingContent pops the stored upload content, if any.
func (s *Service) TakePendingContent(_ context.Context, sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, ok := s.pending[sessionID]
	if ok {
		delete(s.pending, sessionID)
	}
	return content, ok
}
