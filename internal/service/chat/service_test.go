package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/yunxiao/lessonforge/backend/internal/model/lesson"
)

func TestCreateSessionRequiresProfile(t *testing.T) {
	svc := NewService()

	if _, err := svc.CreateSession(context.Background(), ""); !errors.Is(err, ErrProfileRequired) {
		t.Fatalf("expected ErrProfileRequired, got %v", err)
	}
}

func TestCreateSessionAndLookup(t *testing.T) {
	svc := NewService()

	created, err := svc.CreateSession(context.Background(), lesson.OpenTopicProfileID)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated session id")
	}

	got, err := svc.GetSession(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if got.ProfileID != lesson.OpenTopicProfileID {
		t.Fatalf("profile id = %q", got.ProfileID)
	}
}

func TestGetSessionUnknown(t *testing.T) {
	svc := NewService()

	if _, err := svc.GetSession(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSaveMessageAndTranscript(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, lesson.CatchUpProfileID)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	msgs := []lesson.Message{
		{SessionID: session.ID, Sender: "user", Content: "静夜思"},
		{SessionID: session.ID, Sender: "assistant", Content: "# 教案"},
	}
	for _, m := range msgs {
		if err := svc.SaveMessage(ctx, m); err != nil {
			t.Fatalf("SaveMessage err: %v", err)
		}
	}

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("transcript length = %d", len(transcript))
	}
	if transcript[0].Content != "静夜思" || transcript[1].Sender != "assistant" {
		t.Fatalf("unexpected transcript: %+v", transcript)
	}
	if transcript[0].ID == "" || transcript[0].CreatedAt.IsZero() {
		t.Fatal("saved message must get id and timestamp")
	}
}

func TestSaveMessageUnknownSession(t *testing.T) {
	svc := NewService()

	err := svc.SaveMessage(context.Background(), lesson.Message{SessionID: "missing", Content: "x"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestPendingContentTakenOnce(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, lesson.OpenTopicProfileID)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if err := svc.SetPendingContent(ctx, session.ID, "## Content from notes.md\n\nbody"); err != nil {
		t.Fatalf("SetPendingContent err: %v", err)
	}

	content, ok := svc.TakePendingContent(ctx, session.ID)
	if !ok || content == "" {
		t.Fatal("expected pending content on first take")
	}
	if _, ok := svc.TakePendingContent(ctx, session.ID); ok {
		t.Fatal("pending content must be consumed by the first take")
	}
}

func TestSetPendingContentUnknownSession(t *testing.T) {
	svc := NewService()

	err := svc.SetPendingContent(context.Background(), "missing", "content")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
