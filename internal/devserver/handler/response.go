package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ticketing-front/internal/model"
	"ticketing-front/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError answers {"code": ..., "message": ...}. Errors that are not
// an *apierror.Error are logged and reported as a bare 500.
func writeError(w http.ResponseWriter, err error) {
	body := apierror.New("INTERNAL_ERROR", "Unexpected server error", http.StatusInternalServerError)

	var apiErr *apierror.Error
	switch {
	case errors.As(err, &apiErr):
		body = apiErr
	case errors.Is(err, model.ErrInvalidInput):
		body = apierror.New("BAD_REQUEST", err.Error(), http.StatusBadRequest)
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	status := body.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return apierror.New("BAD_REQUEST", "invalid JSON body", http.StatusBadRequest)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.New("BAD_REQUEST", "invalid "+name, http.StatusBadRequest)
	}
	return id, nil
}
