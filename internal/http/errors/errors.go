package errors

import (
	"encoding/json"
	"net/http"
)

// errorResponse es lo único que ve el cliente de un AppError.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe err como JSON. Errores que no son *AppError salen
// como 500 sin exponer la causa.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", appErr.retryAfterSeconds())
	}
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
