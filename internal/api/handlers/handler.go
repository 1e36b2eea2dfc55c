// handler.go — основной обработчик API TDP Backend.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/George-Hudson/TANF-app/internal/auth"
	"github.com/George-Hudson/TANF-app/internal/service"
)

// APIHandler — основной обработчик API TDP Backend.
type APIHandler struct {
	health    *HealthHandler
	login     *LoginHandler
	dataFiles *service.DataFilesService
	scans     *service.ScanService
	logger    *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	login *LoginHandler,
	dataFiles *service.DataFilesService,
	scans *service.ScanService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:    health,
		login:     login,
		dataFiles: dataFiles,
		scans:     scans,
		logger:    logger.With(slog.String("component", "api_handler")),
	}
}

// Login возвращает обработчик аутентификации.
func (h *APIHandler) Login() *LoginHandler { return h.login }

// Health возвращает обработчик health endpoints.
func (h *APIHandler) Health() *HealthHandler { return h.health }

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// paginationParams извлекает и нормализует limit/offset из query string.
func paginationParams(r *http.Request) (int, int) {
	limit := 50
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	return limit, offset
}

// sessionUser достаёт сессию из cookie запроса. Возвращает nil без ошибки,
// если cookie отсутствует или не расшифровывается.
func sessionUser(sm *auth.SessionManager, r *http.Request) *auth.SessionData {
	session, err := sm.GetSessionFromRequest(r)
	if err != nil || session == nil {
		return nil
	}
	return session
}
