package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"taskflow/tasks/core"
	"taskflow/tasks/pkg/res"
)

// WriteErr maps service errors to HTTP statuses. Anything not classified is
// logged and reported as an internal error.
func WriteErr(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidArgs):
		res.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		res.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, core.ErrBackend):
		log.Error("storage failure", "error", err)
		res.Error(w, "storage unavailable", http.StatusBadGateway)
	default:
		log.Error("unexpected error", "error", err)
		res.Error(w, "internal error", http.StatusInternalServerError)
	}
}
