package profile

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yunxiao/lessonforge/backend/internal/model/lesson"
)

// Handler 生成模式（profile）的HTTP处理器
type Handler struct {
	profiles lesson.Store
}

// New 创建profile处理器
func New(profiles lesson.Store) *Handler {
	return &Handler{
		profiles: profiles,
	}
}

// RegisterRoutes 注册profile相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profiles", h.handleListProfiles)
}

// handleListProfiles 列出所有生成模式及其示例提问
func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := h.profiles.List()
	h.respondJSON(w, http.StatusOK, profiles)
}

// respondJSON 发送JSON响应
func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
