package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yunxiao/lessonforge/backend/internal/model/lesson"
	chatService "github.com/yunxiao/lessonforge/backend/internal/service/chat"
	"github.com/yunxiao/lessonforge/backend/internal/service/convert"
)

// Handler 会话与文件上传的HTTP处理器
type Handler struct {
	chatSvc      *chatService.Service
	profileStore lesson.Store
	converter    *convert.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, profileStore lesson.Store, converter *convert.Service) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		profileStore: profileStore,
		converter:    converter,
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Post("/messages", h.handleSaveMessage)
	r.Get("/messages/{sessionID}", h.handleListMessages)
	r.Post("/upload/{sessionID}", h.handleUpload)
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProfileID string `json:"profileId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.ProfileID == "" {
		payload.ProfileID = lesson.OpenTopicProfileID
	}

	if _, ok := h.profileStore.FindByID(payload.ProfileID); !ok {
		respondError(w, http.StatusBadRequest, "profile not found")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.ProfileID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// handleSaveMessage 保存消息
func (h *Handler) handleSaveMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Sender    string `json:"sender"`
		Content   string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := lesson.Message{
		SessionID: payload.SessionID,
		Sender:    payload.Sender,
		Content:   payload.Content,
	}

	if err := h.chatSvc.SaveMessage(r.Context(), message); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// handleListMessages 返回会话的历史消息，含已保存的助手回复。
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, messages)
}

// fileResult 描述单个上传文件的处理结果。
type fileResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// handleUpload 接收上传文件，逐个转换为markdown并暂存到会话，
// 等待后续的生成请求消费。单个文件失败不影响批次内其余文件。
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	if err := r.ParseMultipartForm(h.converter.MaxBytes()); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	var combined strings.Builder
	results := make([]fileResult, 0, len(files))

	for _, header := range files {
		markdown, err := h.convertUpload(r.Context(), header)
		if err != nil {
			log.Printf("[upload] failed to process %s: %v", header.Filename, err)
			results = append(results, fileResult{Name: header.Filename, Error: err.Error()})
			continue
		}

		fmt.Fprintf(&combined, "\n\n## Content from %s\n\n%s", header.Filename, markdown)
		results = append(results, fileResult{Name: header.Filename, OK: true})
	}

	if combined.Len() == 0 {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "无法从上传的文件中提取内容。请确保文件格式正确且内容可读。",
			"results": results,
		})
		return
	}

	if err := h.chatSvc.SetPendingContent(r.Context(), sessionID, combined.String()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "converted",
		"results": results,
	})
}

// convertUpload spools one uploaded file to a temp path and converts it.
func (h *Handler) convertUpload(ctx context.Context, header *multipart.FileHeader) (string, error) {
	if max := h.converter.MaxBytes(); max > 0 && header.Size > max {
		return "", fmt.Errorf("文件太大 (%.1fMB)，请上传%dMB以下的文件", float64(header.Size)/(1<<20), max>>20)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tempDir, err := os.MkdirTemp("", "lessonforge-upload-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	tempPath := filepath.Join(tempDir, filepath.Base(header.Filename))
	dst, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("save upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}

	return h.converter.Convert(ctx, tempPath)
}

// respondJSON 发送JSON响应
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError 发送错误响应
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
