// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
	"github.com/Shivanand-hulikatti/academy-events/internal/repository"
)

// maxJSONBody caps admin and submission JSON payloads.
const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps a service error onto a status code. what names the
// resource for 404 messages.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, what string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, model.ErrorResponse{
			Error:  "validation failed",
			Fields: verr.Errors,
		})
	case model.AdmissionReason(err) != "":
		writeJSON(w, http.StatusConflict, model.ErrorResponse{
			Error:  err.Error(),
			Reason: model.AdmissionReason(err),
		})
	case errors.Is(err, repository.ErrConflict):
		writeJSON(w, http.StatusConflict, model.ErrorResponse{
			Error:  "the request conflicted with a concurrent update, please retry",
			Reason: "retry",
		})
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
