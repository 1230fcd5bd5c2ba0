// Package errors define los errores HTTP de la API y cómo se serializan.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// AppError es el error estándar de la capa HTTP.
type AppError struct {
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	HTTPStatus int           `json:"-"`
	RetryAfter time.Duration `json:"-"`
	Err        error         `json:"-"` // causa, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// FromError convierte cualquier error en AppError. Lo que no lo es termina
// como ErrInternalServerError conservando la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail devuelve una COPIA con detail; no muta las variables base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause devuelve una COPIA con la causa.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// WithRetryAfter devuelve una COPIA que además emite el header Retry-After.
func (e *AppError) WithRetryAfter(d time.Duration) *AppError {
	newErr := *e
	newErr.RetryAfter = d
	return &newErr
}

func (e *AppError) retryAfterSeconds() string {
	secs := int64((e.RetryAfter + time.Second - 1) / time.Second)
	return strconv.FormatInt(max(secs, 1), 10)
}

// =================================================================================
// ERRORES PREDEFINIDOS
// =================================================================================

// 400
var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "La solicitud contiene sintaxis inválida o parámetros faltantes.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Faltan campos requeridos en la solicitud.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidFormat = &AppError{
		Code:       "INVALID_FORMAT",
		Message:    "El formato de uno o más campos es inválido.",
		HTTPStatus: http.StatusBadRequest,
	}
)

// 404 / 405 / 413
var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "El método HTTP no está permitido para este recurso.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrBodyTooLarge = &AppError{
		Code:       "BODY_TOO_LARGE",
		Message:    "El cuerpo de la solicitud excede el tamaño permitido.",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
)

// 429
var (
	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Ha excedido el límite de solicitudes. Intente más tarde.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// 500+
var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error interno en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "El servicio no está disponible temporalmente.",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrGatewayTimeout = &AppError{
		Code:       "GATEWAY_TIMEOUT",
		Message:    "El servidor tardó demasiado en responder.",
		HTTPStatus: http.StatusGatewayTimeout,
	}
)
