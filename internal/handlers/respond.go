package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/AnshRaj112/astravedam-backend/internal/logging"
	"github.com/AnshRaj112/astravedam-backend/internal/services"
	"github.com/AnshRaj112/astravedam-backend/pkg/utils"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 10 << 20

type ErrorResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Details string                 `json:"details,omitempty"`
	Fields  utils.ValidationErrors `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{Success: false, Error: message, Details: details})
}

// decodeJSON reads a size-limited JSON body into v and validates it. It
// writes the error response itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", "")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		var fields utils.ValidationErrors
		errors.As(err, &fields)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   err.Error(),
			Fields:  fields,
		})
		return false
	}
	return true
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, causeOf(err, services.ErrValidation), "")
	case errors.Is(err, services.ErrIdentifierRequired):
		writeError(w, http.StatusBadRequest, "userId is required or login first", "")
	case errors.Is(err, services.ErrLocationNotFound):
		writeError(w, http.StatusBadRequest, "Location not found. Please check the place name and try again.", "")
	case errors.Is(err, services.ErrAuthorizationRequired):
		writeError(w, http.StatusUnauthorized, "Authentication required. Please login.", "")
	case errors.Is(err, services.ErrAccountNotFound):
		writeError(w, http.StatusUnauthorized, "User not found. Please login again.", "")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}

// causeOf drops the sentinel prefix from "<sentinel>: <cause>".
func causeOf(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return sentinel.Error()
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
