package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yunxiao/lessonforge/backend/internal/model/event"
	"github.com/yunxiao/lessonforge/backend/internal/model/lesson"
	"github.com/yunxiao/lessonforge/backend/internal/service/orchestrator"
)

const finalRole = "materials_compiler"

// scriptedEngine replays a fixed event sequence, optionally failing the
// stream at the end.
type scriptedEngine struct {
	events    []event.Event
	streamErr error
}

type scriptedSource struct {
	ch  chan event.Event
	err error
}

func (s *scriptedSource) Events() <-chan event.Event { return s.ch }
func (s *scriptedSource) Err() error                 { return s.err }

func (e *scriptedEngine) Start(_ context.Context, _ string) orchestrator.EventSource {
	source := &scriptedSource{ch: make(chan event.Event), err: e.streamErr}
	go func() {
		defer close(source.ch)
		for _, ev := range e.events {
			source.ch <- ev
		}
	}()
	return source
}

type fakeProgress struct {
	tokens []string
	labels []string
	closed bool
}

func (p *fakeProgress) StreamToken(_ context.Context, token string) error {
	p.tokens = append(p.tokens, token)
	return nil
}

func (p *fakeProgress) SetLabel(_ context.Context, label string) error {
	p.labels = append(p.labels, label)
	return nil
}

func (p *fakeProgress) Close(_ context.Context) error {
	p.closed = true
	return nil
}

type fakeFinal struct {
	content strings.Builder
	notices []string
	sent    bool
}

func (f *fakeFinal) StreamToken(_ context.Context, token string) error {
	f.content.WriteString(token)
	return nil
}

func (f *fakeFinal) Notify(_ context.Context, message string) error {
	f.notices = append(f.notices, message)
	return nil
}

func (f *fakeFinal) Send(_ context.Context) error {
	f.sent = true
	return nil
}

type fakeWriter struct {
	persisted []string
	fail      bool
}

func (w *fakeWriter) Persist(text string) (*lesson.Artifact, error) {
	if w.fail {
		return nil, errors.New("disk full")
	}
	w.persisted = append(w.persisted, text)
	return &lesson.Artifact{
		Timestamp:    "20260828_120000",
		MarkdownPath: "public/md/course_materials_20260828_120000.md",
		PDFPath:      "public/pdfs/course_materials_20260828_120000.pdf",
		Content:      text,
	}, nil
}

func run(t *testing.T, engine *scriptedEngine, writer *fakeWriter) (*lesson.Artifact, *fakeProgress, *fakeFinal, error) {
	t.Helper()
	progress := &fakeProgress{}
	final := &fakeFinal{}
	orch := orchestrator.New(finalRole, writer)
	artifact, err := orch.Run(context.Background(), "task", engine, progress, final)
	return artifact, progress, final, err
}

func TestRunRoutesChunksBySource(t *testing.T) {
	engine := &scriptedEngine{events: []event.Event{
		event.Chunk("writer", "Hello "),
		event.Chunk("writer", "world. TERMINATE ignored tail"),
		event.Chunk(finalRole, "Done."),
	}}

	artifact, progress, final, err := run(t, engine, &fakeWriter{})
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}

	if got := strings.Join(progress.tokens, ""); got != "Hello world." {
		t.Fatalf("working transcript = %q, want %q", got, "Hello world.")
	}
	if !strings.HasPrefix(final.content.String(), "Done.") {
		t.Fatalf("final transcript = %q, want prefix %q", final.content.String(), "Done.")
	}
	if artifact == nil {
		t.Fatal("expected an artifact for non-empty final transcript")
	}
}

func TestRunStopSignalRecoveredText(t *testing.T) {
	writer := &fakeWriter{}
	engine := &scriptedEngine{events: []event.Event{
		event.Chunk(finalRole, "Done."),
		event.Stop("wrap-up TERMINATE extra"),
		event.Result(),
	}}

	_, _, _, err := run(t, engine, writer)
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}

	if len(writer.persisted) != 1 {
		t.Fatalf("expected exactly one persist call, got %d", len(writer.persisted))
	}
	if writer.persisted[0] != "Done.\n\nwrap-up" {
		t.Fatalf("persisted = %q, want %q", writer.persisted[0], "Done.\n\nwrap-up")
	}
}

func TestRunEmptyChunksAreIgnored(t *testing.T) {
	engine := &scriptedEngine{events: []event.Event{
		event.Chunk("writer", ""),
		event.Chunk(finalRole, ""),
	}}

	artifact, progress, final, err := run(t, engine, &fakeWriter{})
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if artifact != nil {
		t.Fatal("no artifact expected for empty transcripts")
	}
	if len(progress.tokens) != 0 {
		t.Fatalf("progress surface received tokens: %v", progress.tokens)
	}
	if final.content.Len() != 0 {
		t.Fatalf("final surface received tokens: %q", final.content.String())
	}
}

func TestRunEmptyStreamStillDeliversFinalSurface(t *testing.T) {
	writer := &fakeWriter{}
	engine := &scriptedEngine{}

	artifact, progress, final, err := run(t, engine, writer)
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if artifact != nil {
		t.Fatal("no artifact expected for an empty run")
	}
	if len(writer.persisted) != 0 {
		t.Fatal("no file writes expected for an empty run")
	}
	if !progress.closed {
		t.Fatal("progress surface must be closed on exhaustion")
	}
	if !final.sent {
		t.Fatal("final surface must be delivered even when empty")
	}
}

func TestRunFinalChunkUpdatesProgressLabel(t *testing.T) {
	engine := &scriptedEngine{events: []event.Event{
		event.Chunk("writer", "draft"),
		event.Chunk(finalRole, "Done."),
	}}

	_, progress, _, err := run(t, engine, &fakeWriter{})
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}

	if len(progress.labels) < 2 {
		t.Fatalf("expected initial and elapsed labels, got %v", progress.labels)
	}
	if progress.labels[0] != "Executing" {
		t.Fatalf("initial label = %q, want Executing", progress.labels[0])
	}
	if !strings.HasPrefix(progress.labels[1], "Executed for ") {
		t.Fatalf("elapsed label = %q", progress.labels[1])
	}
}

func TestRunAppendsArtifactLinks(t *testing.T) {
	engine := &scriptedEngine{events: []event.Event{
		event.Chunk(finalRole, "Done."),
	}}

	_, _, final, err := run(t, engine, &fakeWriter{})
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}

	content := final.content.String()
	if !strings.Contains(content, "Markdown: [course_materials_20260828_120000.md]") {
		t.Fatalf("missing markdown link in %q", content)
	}
	if !strings.Contains(content, "PDF: [course_materials_20260828_120000.pdf]") {
		t.Fatalf("missing pdf link in %q", content)
	}
}

func TestRunPersistFailureKeepsGeneratedText(t *testing.T) {
	engine := &scriptedEngine{events: []event.Event{
		event.Chunk(finalRole, "Done."),
	}}

	artifact, _, final, err := run(t, engine, &fakeWriter{fail: true})
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if artifact != nil {
		t.Fatal("no artifact expected when persistence fails")
	}

	content := final.content.String()
	if !strings.HasPrefix(content, "Done.") {
		t.Fatalf("generated text lost from final surface: %q", content)
	}
	if !strings.Contains(content, "无法创建文件") {
		t.Fatalf("missing persistence failure notice in %q", content)
	}
	if !final.sent {
		t.Fatal("final surface must still be delivered")
	}
}

func TestRunStreamErrorReportedWithoutArtifact(t *testing.T) {
	writer := &fakeWriter{}
	engine := &scriptedEngine{
		events:    []event.Event{event.Chunk(finalRole, "partial")},
		streamErr: errors.New("engine exploded"),
	}

	artifact, _, final, err := run(t, engine, writer)
	if err == nil {
		t.Fatal("expected the stream error to be returned")
	}
	if artifact != nil {
		t.Fatal("no artifact expected after a stream-level failure")
	}
	if len(writer.persisted) != 0 {
		t.Fatal("persistence must be skipped after a stream-level failure")
	}
	if len(final.notices) != 1 || !strings.Contains(final.notices[0], "生成内容时出错") {
		t.Fatalf("expected a single user-facing error notice, got %v", final.notices)
	}
	if !final.sent {
		t.Fatal("final surface must still be delivered")
	}
}

// brokenProgress refuses every write, as a disconnected client would.
type brokenProgress struct{}

func (brokenProgress) StreamToken(context.Context, string) error {
	return errors.New("client gone")
}

func (brokenProgress) SetLabel(context.Context, string) error {
	return errors.New("client gone")
}

func (brokenProgress) Close(context.Context) error {
	return errors.New("client gone")
}

// brokenFinal fails every token write but still accepts delivery.
type brokenFinal struct {
	sent bool
}

func (f *brokenFinal) StreamToken(context.Context, string) error {
	return errors.New("client gone")
}

func (f *brokenFinal) Notify(context.Context, string) error {
	return errors.New("client gone")
}

func (f *brokenFinal) Send(_ context.Context) error {
	f.sent = true
	return nil
}

func TestRunSurfaceFailuresDoNotAbortRun(t *testing.T) {
	writer := &fakeWriter{}
	engine := &scriptedEngine{events: []event.Event{
		event.Chunk("writer", "draft"),
		event.Chunk(finalRole, "Done."),
		event.Stop(""),
		event.Result(),
	}}

	final := &brokenFinal{}
	orch := orchestrator.New(finalRole, writer)
	artifact, err := orch.Run(context.Background(), "task", engine, brokenProgress{}, final)
	if err != nil {
		t.Fatalf("surface write failures must not fail the run: %v", err)
	}
	if artifact == nil {
		t.Fatal("expected an artifact despite surface write failures")
	}
	if len(writer.persisted) != 1 || writer.persisted[0] != "Done." {
		t.Fatalf("persisted = %v, want the full final transcript", writer.persisted)
	}
	if !final.sent {
		t.Fatal("final surface must still be delivered")
	}
}

func TestRunUnrecognizedEventForwardedBestEffort(t *testing.T) {
	engine := &scriptedEngine{events: []event.Event{
		{Kind: event.KindOther, Content: "tool call trace"},
		{Kind: event.KindOther},
	}}

	_, progress, _, err := run(t, engine, &fakeWriter{})
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if len(progress.tokens) != 1 || progress.tokens[0] != "tool call trace" {
		t.Fatalf("unexpected forwarded tokens: %v", progress.tokens)
	}
}
