package artifact

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yunxiao/lessonforge/backend/internal/config"
	"github.com/yunxiao/lessonforge/backend/internal/model/event"
	"github.com/yunxiao/lessonforge/backend/internal/model/lesson"
)

const (
	filePrefix   = "course_materials"
	defaultTitle = "中国小学语文教学内容"
)

// Writer persists a completed lesson plan as a markdown file plus a
// rendered PDF keyed by one timestamp identifier.
//
// The markdown file always carries the text verbatim; the default title
// heading is prepended on the PDF rendering only.
type Writer struct {
	markdownDir string
	pdfDir      string
	fontPath    string

	// render is swappable in tests to force the degraded path.
	render func(path, content, fontPath string) error
	now    func() time.Time
}

// NewWriter builds a writer for the configured output layout.
func NewWriter(cfg config.OutputConfig) *Writer {
	return &Writer{
		markdownDir: cfg.MarkdownDir,
		pdfDir:      cfg.PDFDir,
		fontPath:    EnsureFont(cfg.FontPath, cfg.FontURL),
		render:      renderPDF,
		now:         time.Now,
	}
}

// Persist writes text to both output files. It fails only when the
// markdown file cannot be written; PDF rendering degrades to a raw-text
// fallback so a deliverable always exists at the PDF path.
func (w *Writer) Persist(text string) (*lesson.Artifact, error) {
	cleaned := event.StripSentinel(text)

	timestamp := w.now().Format("20060102_150405")

	if err := os.MkdirAll(w.markdownDir, 0o755); err != nil {
		return nil, fmt.Errorf("create markdown directory: %w", err)
	}
	if err := os.MkdirAll(w.pdfDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pdf directory: %w", err)
	}

	markdownPath := filepath.Join(w.markdownDir, fmt.Sprintf("%s_%s.md", filePrefix, timestamp))
	if err := os.WriteFile(markdownPath, []byte(cleaned), 0o644); err != nil {
		return nil, fmt.Errorf("write markdown file: %w", err)
	}

	docContent := cleaned
	if docContent == "" {
		docContent = "# 无内容\n\n请检查生成过程，内容生成失败。"
	}
	if !strings.HasPrefix(docContent, "# ") {
		docContent = fmt.Sprintf("# %s\n\n%s", defaultTitle, docContent)
	}

	pdfPath := filepath.Join(w.pdfDir, fmt.Sprintf("%s_%s.pdf", filePrefix, timestamp))
	if err := w.render(pdfPath, docContent, w.fontPath); err != nil {
		// 渲染失败降级为纯文本，保证产物始终存在。
		log.Printf("[artifact] pdf rendering failed, writing raw text fallback: %v", err)
		if writeErr := os.WriteFile(pdfPath, []byte(docContent), 0o644); writeErr != nil {
			log.Printf("[artifact] raw text fallback failed: %v", writeErr)
		}
	}

	return &lesson.Artifact{
		Timestamp:    timestamp,
		MarkdownPath: markdownPath,
		PDFPath:      pdfPath,
		Content:      docContent,
	}, nil
}
