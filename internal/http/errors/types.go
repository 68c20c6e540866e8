package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError es el error estándar de la capa HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa, sólo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// FromError devuelve el *AppError de la cadena, o un 500 genérico con err como causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail devuelve una copia con Detail (no muta los predefinidos).
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause devuelve una copia con la causa.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// ERRORES PREDEFINIDOS
// =================================================================================

var (
	// 400: el body siempre es el mismo, el motivo real va a logs/métricas.
	ErrGateRejected    = New(http.StatusBadRequest, "GATE_REJECTED", "Invalid request")
	ErrInvalidToken    = New(http.StatusBadRequest, "INVALID_TOKEN", "Invalid token")
	ErrInvalidPushBody = New(http.StatusBadRequest, "INVALID_PUSH_BODY", "Invalid push body")
	ErrMissingPayload  = New(http.StatusBadRequest, "MISSING_PAYLOAD", "Missing payload")

	ErrMethodNotAllowed = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	ErrNotFound         = New(http.StatusNotFound, "NOT_FOUND", "Not found")

	ErrPublishFailed       = New(http.StatusServiceUnavailable, "PUBLISH_FAILED", "An error occurred publishing the message")
	ErrInternalServerError = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal error occurred")
)
