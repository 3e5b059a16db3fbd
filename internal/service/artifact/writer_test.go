package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	base := t.TempDir()
	return &Writer{
		markdownDir: filepath.Join(base, "md"),
		pdfDir:      filepath.Join(base, "pdfs"),
		render:      renderPDF,
		now:         func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) },
	}
}

func TestPersistWritesMarkdownVerbatim(t *testing.T) {
	w := newTestWriter(t)

	artifact, err := w.Persist("# Title\nBody")
	if err != nil {
		t.Fatalf("Persist err: %v", err)
	}

	data, err := os.ReadFile(artifact.MarkdownPath)
	if err != nil {
		t.Fatalf("read markdown file: %v", err)
	}
	if string(data) != "# Title\nBody" {
		t.Fatalf("markdown content = %q, want verbatim input", data)
	}

	if _, err := os.Stat(artifact.PDFPath); err != nil {
		t.Fatalf("pdf file missing: %v", err)
	}
}

func TestPersistSharedTimestampIdentifier(t *testing.T) {
	w := newTestWriter(t)

	artifact, err := w.Persist("content")
	if err != nil {
		t.Fatalf("Persist err: %v", err)
	}

	if artifact.Timestamp != "20260828_120000" {
		t.Fatalf("timestamp = %q", artifact.Timestamp)
	}
	if filepath.Base(artifact.MarkdownPath) != "course_materials_20260828_120000.md" {
		t.Fatalf("markdown filename = %q", filepath.Base(artifact.MarkdownPath))
	}
	if filepath.Base(artifact.PDFPath) != "course_materials_20260828_120000.pdf" {
		t.Fatalf("pdf filename = %q", filepath.Base(artifact.PDFPath))
	}
}

func TestPersistPrependsTitleOnDocumentOnly(t *testing.T) {
	w := newTestWriter(t)

	artifact, err := w.Persist("无标题正文")
	if err != nil {
		t.Fatalf("Persist err: %v", err)
	}

	if !strings.HasPrefix(artifact.Content, "# "+defaultTitle) {
		t.Fatalf("document content missing default title: %q", artifact.Content)
	}

	data, err := os.ReadFile(artifact.MarkdownPath)
	if err != nil {
		t.Fatalf("read markdown file: %v", err)
	}
	if string(data) != "无标题正文" {
		t.Fatalf("markdown file must keep the original text, got %q", data)
	}
}

func TestPersistKeepsExistingTitle(t *testing.T) {
	w := newTestWriter(t)

	artifact, err := w.Persist("# 静夜思教学\n\n正文")
	if err != nil {
		t.Fatalf("Persist err: %v", err)
	}
	if strings.Contains(artifact.Content, defaultTitle) {
		t.Fatalf("default title must not be added to titled content: %q", artifact.Content)
	}
}

func TestPersistStripsSentinel(t *testing.T) {
	w := newTestWriter(t)

	artifact, err := w.Persist("# Plan\n\nBody TERMINATE trailing")
	if err != nil {
		t.Fatalf("Persist err: %v", err)
	}

	data, err := os.ReadFile(artifact.MarkdownPath)
	if err != nil {
		t.Fatalf("read markdown file: %v", err)
	}
	if strings.Contains(string(data), "TERMINATE") {
		t.Fatalf("sentinel leaked into markdown file: %q", data)
	}
}

func TestPersistRenderFailureFallsBackToRawText(t *testing.T) {
	w := newTestWriter(t)
	w.render = func(path, content, fontPath string) error {
		return errors.New("renderer broken")
	}

	artifact, err := w.Persist("# Title\nBody")
	if err != nil {
		t.Fatalf("Persist must not fail on render errors: %v", err)
	}
	if artifact == nil {
		t.Fatal("expected non-nil artifact from fallback path")
	}

	data, err := os.ReadFile(artifact.PDFPath)
	if err != nil {
		t.Fatalf("fallback deliverable missing at pdf path: %v", err)
	}
	if !strings.Contains(string(data), "Body") {
		t.Fatalf("fallback file must carry the raw text, got %q", data)
	}
}

func TestPersistFailsWhenMarkdownUnwritable(t *testing.T) {
	base := t.TempDir()
	blocked := filepath.Join(base, "md")
	if err := os.WriteFile(blocked, []byte("not a directory"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	w := &Writer{
		markdownDir: blocked,
		pdfDir:      filepath.Join(base, "pdfs"),
		render:      renderPDF,
		now:         time.Now,
	}

	if _, err := w.Persist("content"); err == nil {
		t.Fatal("expected error when markdown directory cannot be created")
	}
}
