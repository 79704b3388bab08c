// Пакет errors — конструкторы стандартных ошибок Document Module.
// Единый формат: {"success": false, "error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // конфликт со stdlib, имя сохранено по образцу остальных модулей

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок внешней таксономии.
const (
	CodeAuthError       = "AUTH_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeStorageError    = "STORAGE_ERROR"
)

// Стандартные сообщения. MsgNotFound используется и для несуществующих,
// и для скрытых документов — тела ответов обязаны быть неразличимы.
const (
	MsgNotFound  = "Ресурс не найден"
	MsgForbidden = "Недостаточно прав для доступа к ресурсу"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Success bool        `json:"success"`
	Error   errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Details — диагностика для 500, заполняется только при DM_DEBUG_ERRORS
	Details string `json:"details,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	writeBody(w, statusCode, code, message, "")
}

func writeBody(w http.ResponseWriter, statusCode int, code, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Success: false,
		Error: errorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Unauthorized — 401 отсутствует/невалиден/просрочен токен сессии.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeAuthError, message)
}

// ValidationError — 400 некорректный идентификатор или форма запроса.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// Forbidden — 403 аутентифицирован, но доступ запрещён.
func Forbidden(w http.ResponseWriter) {
	WriteError(w, http.StatusForbidden, CodeForbidden, MsgForbidden)
}

// NotFound — 404 ресурс не существует или скрыт от субъекта.
// Сообщение фиксированное: тело не должно выдавать факт существования.
func NotFound(w http.ResponseWriter) {
	WriteError(w, http.StatusNotFound, CodeNotFound, MsgNotFound)
}

// StorageError — 500 ошибка хранилища. details попадает в тело только
// при включённом debug-режиме (DM_DEBUG_ERRORS), полные детали — в логи.
func StorageError(w http.ResponseWriter, details string, debug bool) {
	if !debug {
		details = ""
	}
	writeBody(w, http.StatusInternalServerError, CodeStorageError,
		"Внутренняя ошибка хранилища", details)
}
