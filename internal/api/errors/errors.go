// Пакет errors — конструкторы стандартных ошибок API.
// Единый формат: {"error": "<сообщение>"}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors

import (
	"encoding/json"
	"net/http"
)

// Сообщения об ошибках входа. Тексты входят во внешний контракт
// с фронтендом и не меняются.
const (
	// MsgInvalidCode — провайдер отклонил authorization code либо недоступен.
	MsgInvalidCode = "Invalid Validation Code Or OpenID Connect Authenticator Down!"
	// MsgUnverifiedEmail — провайдер не подтвердил email пользователя.
	MsgUnverifiedEmail = "Unverified email!"
	// MsgInternalLoginIssue — email подтверждён, но регистрация или вход
	// завершились внутренней ошибкой. Намеренно 400, а не 500: детали
	// сбоя наружу не утекают, полная информация остаётся в логах.
	MsgInternalLoginIssue = "Email verified, but experienced internal issue with login/registration."
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error string `json:"error"`
}

// WriteError записывает ответ ошибки в стандартном формате API.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}

// --- Конструкторы для типичных ошибок ---

// BadRequest — 400 некорректные входные данные.
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

// Conflict — 409 конфликт (дублирующийся ресурс).
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}
