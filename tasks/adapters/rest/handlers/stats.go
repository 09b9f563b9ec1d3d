package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"taskflow/tasks/adapters/rest"
	"taskflow/tasks/core"
	"taskflow/tasks/pkg/res"
)

func NewStatsHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		s, err := svc.Stats(ctx)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, s, http.StatusOK)
	}
}
