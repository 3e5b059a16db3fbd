package convert

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yunxiao/lessonforge/backend/internal/config"
)

// ErrFileTooLarge marks a file that exceeds the per-file size limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// Service converts uploaded documents to markdown. Markdown, plain text
// and CSV are handled locally; other formats are delegated to an external
// converter endpoint when one is configured.
type Service struct {
	endpoint string
	maxBytes int64
	client   *http.Client
}

// NewService builds the converter from configuration.
func NewService(cfg config.ConvertConfig) *Service {
	return &Service{
		endpoint: cfg.Endpoint,
		maxBytes: int64(cfg.MaxFileMB) << 20,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// MaxBytes reports the per-file size limit.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Convert turns the file at path into markdown text.
func (s *Service) Convert(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return "", fmt.Errorf("%w: %.1fMB", ErrFileTooLarge, float64(info.Size())/(1<<20))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(data), nil

	case ".csv":
		return convertCSV(path)

	default:
		return s.convertRemote(ctx, path)
	}
}

// convertCSV renders a CSV file as a markdown table.
func convertCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var b strings.Builder
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse csv: %w", err)
		}

		b.WriteString("| ")
		b.WriteString(strings.Join(record, " | "))
		b.WriteString(" |\n")

		if row == 0 {
			b.WriteString("|")
			b.WriteString(strings.Repeat(" --- |", len(record)))
			b.WriteString("\n")
		}
		row++
	}

	if row == 0 {
		return "", errors.New("csv file is empty")
	}
	return b.String(), nil
}

// convertRemote ships the file to the external conversion service as a
// multipart POST and expects markdown back.
func (s *Service) convertRemote(ctx context.Context, path string) (string, error) {
	if s.endpoint == "" {
		return "", fmt.Errorf("unsupported file type %s: no converter endpoint configured", filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("build multipart request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy file into request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build converter request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call converter service: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read converter response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("converter service returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	// JSON {"markdown": ...} 或纯文本两种返回格式都接受。
	var parsed struct {
		Markdown string `json:"markdown"`
	}
	if err := json.Unmarshal(payload, &parsed); err == nil && parsed.Markdown != "" {
		return parsed.Markdown, nil
	}
	return string(payload), nil
}
