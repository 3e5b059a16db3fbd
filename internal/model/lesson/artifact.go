package lesson

// Artifact is the persisted output of a completed run: a verbatim markdown
// file plus a rendered PDF sharing one timestamp identifier. Immutable once
// written.
type Artifact struct {
	Timestamp    string `json:"timestamp"`
	MarkdownPath string `json:"markdownPath"`
	PDFPath      string `json:"pdfPath"`
	Content      string `json:"content"`
}
