package lesson

import (
	"strings"
	"time"
)

// Session captures a transient generation run bound to one user request.
// It is never shared across concurrent requests.
type Session struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profileId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message persists individual turns for audit/debug.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// RunState holds the mutable state of one streaming run: the two
// append-only transcripts plus the routing flag. WorkingBuffer only ever
// receives chunks from non-final roles; FinalBuffer only receives chunks
// from FinalRole or recovered stop-signal text.
type RunState struct {
	StartTime   time.Time
	IsExecuting bool
	FinalRole   string

	working strings.Builder
	final   strings.Builder
}

// NewRunState creates a fresh run state for a single session run.
func NewRunState(finalRole string) *RunState {
	return &RunState{
		StartTime: time.Now(),
		FinalRole: finalRole,
	}
}

// AppendWorking appends text to the in-progress transcript.
func (s *RunState) AppendWorking(text string) {
	s.working.WriteString(text)
}

// AppendFinal appends text to the final transcript.
func (s *RunState) AppendFinal(text string) {
	s.final.WriteString(text)
}

// Working returns the accumulated in-progress transcript.
func (s *RunState) Working() string {
	return s.working.String()
}

// Final returns the accumulated final transcript.
func (s *RunState) Final() string {
	return s.final.String()
}

// Elapsed reports whole seconds since the run started.
func (s *RunState) Elapsed() int {
	return int(time.Since(s.StartTime).Round(time.Second) / time.Second)
}
