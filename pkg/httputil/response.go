package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/bmanav26/E-Commerce/pkg/errors"
	"github.com/bmanav26/E-Commerce/pkg/logger"
	"github.com/bmanav26/E-Commerce/pkg/validator"
)

// Envelope is the standard JSON response body. Every response carries a
// "success" flag; successful responses merge their payload fields into the
// top level, failures carry a single "message" field.
type Envelope map[string]any

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes {"success": true} merged with the given payload fields.
func WriteSuccess(w http.ResponseWriter, status int, payload Envelope) {
	body := Envelope{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	WriteJSON(w, status, body)
}

// WriteMessage writes a success envelope containing only a message.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteSuccess(w, status, Envelope{"message": message})
}

// WriteError writes {"success": false, "message": ...} with a status derived
// from the error taxonomy. Internal errors are logged (preferring the
// request-scoped logger) and their details are never exposed to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}

	status := apperrors.HTTPStatus(err)
	message := "internal server error"

	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		message = appErr.Message
	case errors.Is(err, apperrors.ErrNotFound):
		message = "resource not found"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		message = "duplicate value entered"
	case errors.Is(err, apperrors.ErrInvalidInput):
		message = err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		message = "please login to access this resource"
	case errors.Is(err, apperrors.ErrForbidden):
		message = "you are not allowed to access this resource"
	}

	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Envelope{"success": false, "message": message})
}

// WriteValidationError writes a 400 failure envelope for a request-body
// validation error, preserving field-level messages when available.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Envelope{
			"success": false,
			"message": valErr.Error(),
			"fields":  valErr.Fields(),
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Envelope{"success": false, "message": err.Error()})
}

// ParseUUID validates the given path parameter as a UUID. On failure it
// writes a 400 failure envelope (malformed ids are client errors, mirroring
// the cast-error mapping of the public API) and returns false.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Envelope{
			"success": false,
			"message": "resource not found, invalid id: " + param,
		})
		return uuid.Nil, false
	}
	return id, true
}
