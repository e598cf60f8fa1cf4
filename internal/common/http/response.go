package http

import (
	"encoding/json"
	"net/http"

	"github.com/bbp-platform/user-service/internal/common/constants"
	commonerrors "github.com/bbp-platform/user-service/internal/common/errors"
)

// ErrorResponse is the failure envelope every endpoint shares.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{
		Success: false,
		Error:   http.StatusText(status),
		Message: message,
	})
}

// WriteDomainError translates a tagged service error into a status code and
// envelope. Anything untagged becomes a generic internal error so internals
// never leak.
func WriteDomainError(w http.ResponseWriter, err error) {
	if de, ok := commonerrors.AsDomainError(err); ok {
		WriteError(w, de.HTTPStatus(), de.Message())
		return
	}
	WriteError(w, http.StatusInternalServerError, "An unexpected error occurred")
}

func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	body := http.MaxBytesReader(nil, r.Body, constants.DefaultMaxRequestSize)
	return json.NewDecoder(body).Decode(v)
}
