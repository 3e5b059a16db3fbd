package artifact

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

const cjkFontFamily = "NotoSansSC"

// renderPDF lays out the flattened markdown on A4 pages. A registered CJK
// font is required for Chinese text; without one the core Helvetica font
// is used and CJK glyphs will not render (the markdown file still carries
// the full content).
func renderPDF(path, content, fontPath string) error {
	pdf := fpdf.New("P", "mm", "A4", "")

	family := "Helvetica"
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err == nil {
			pdf.AddUTF8Font(cjkFontFamily, "", fontPath)
			family = cjkFontFamily
		}
	}

	pdf.SetFont(family, "", 10)
	pdf.AddPage()

	lines := Flatten([]byte(content))
	first := true
	for _, line := range lines {
		if line == "" {
			pdf.Ln(3)
			continue
		}
		if first {
			// 首行视作标题，放大显示。
			pdf.SetFont(family, "", 16)
			pdf.MultiCell(0, 8, line, "", "L", false)
			pdf.SetFont(family, "", 10)
			pdf.Ln(2)
			first = false
			continue
		}
		pdf.MultiCell(0, 6, line, "", "L", false)
	}

	if pdf.Err() {
		return fmt.Errorf("pdf layout failed: %s", pdf.Error())
	}
	return pdf.OutputFileAndClose(path)
}

// EnsureFont downloads the configured CJK font when it is not already on
// disk. Returns the usable font path, or empty when no font could be
// obtained; callers degrade to the core font in that case.
func EnsureFont(fontPath, fontURL string) string {
	if fontPath == "" {
		return ""
	}
	if _, err := os.Stat(fontPath); err == nil {
		return fontPath
	}
	if fontURL == "" {
		return ""
	}

	if err := downloadFont(fontPath, fontURL); err != nil {
		log.Printf("[artifact] failed to download CJK font: %v", err)
		return ""
	}
	log.Printf("[artifact] downloaded CJK font to %s", fontPath)
	return fontPath
}

func downloadFont(fontPath, fontURL string) error {
	if err := os.MkdirAll(filepath.Dir(fontPath), 0o755); err != nil {
		return fmt.Errorf("create font directory: %w", err)
	}

	resp, err := http.Get(fontURL)
	if err != nil {
		return fmt.Errorf("fetch font: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch font: unexpected status %s", resp.Status)
	}

	out, err := os.Create(fontPath)
	if err != nil {
		return fmt.Errorf("create font file: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(fontPath)
		return fmt.Errorf("save font file: %w", err)
	}
	return out.Close()
}
