// Package handlers holds the JSON helpers shared by the HTTP handlers.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

const (
	msgInternalError  = "внутренняя ошибка сервера"
	msgValidation     = "ошибка валидации"
	msgTryAgain       = "операция не выполнена, повторите попытку"
	msgForbidden      = "доступ запрещен"
	msgConflictStatus = "недопустимый переход статуса"
)

// maxBodySize ограничение тела запроса
const maxBodySize = 1 << 20

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// DecodeJSON декодирует тело запроса, неизвестные поля запрещены
func DecodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// RespondJSON пишет ответ в JSON
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError пишет ошибку с кодом и сообщением
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Code: status, Message: message})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, message)
}

func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, message)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

func RespondConflict(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusConflict, message)
}

func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, msgInternalError)
}

// RespondValidation 422 с сообщениями по полям
func RespondValidation(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Code: http.StatusUnprocessableEntity, Message: msgValidation}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		resp.Fields = vErr.Fields
	}
	RespondJSON(w, http.StatusUnprocessableEntity, resp)
}

// RespondDomainError отвечает на ошибки, общие для всех операций
// Возвращает false, если ошибка не распознана
func RespondDomainError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, domain.ErrValidation):
		RespondValidation(w, err)
	case errors.Is(err, domain.ErrAuthorization):
		RespondForbidden(w, msgForbidden)
	case errors.Is(err, domain.ErrInvalidTransition):
		RespondConflict(w, msgConflictStatus)
	case errors.Is(err, domain.ErrTransaction):
		RespondError(w, http.StatusServiceUnavailable, msgTryAgain)
	default:
		return false
	}
	return true
}
