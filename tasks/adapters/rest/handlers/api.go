package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"taskflow/tasks/core"
)

func Register(mux *http.ServeMux, log *slog.Logger, svc core.Tasks, timeout time.Duration) {
	// ping
	mux.Handle("GET /api/ping", NewPingHandler(log, map[string]core.Pinger{"storage": svc}, timeout))

	// categories
	mux.Handle("POST /api/categories", NewCreateCategoryHandler(log, svc, timeout))
	mux.Handle("GET /api/categories", NewListCategoriesHandler(log, svc, timeout))
	mux.Handle("GET /api/categories/{id}", NewGetCategoryHandler(log, svc, timeout))
	mux.Handle("PATCH /api/categories/{id}", NewPatchCategoryHandler(log, svc, timeout))
	mux.Handle("DELETE /api/categories/{id}", NewDeleteCategoryHandler(log, svc, timeout))

	// tasks
	mux.Handle("POST /api/tasks", NewCreateTaskHandler(log, svc, timeout))
	mux.Handle("GET /api/tasks", NewListTasksHandler(log, svc, timeout))
	mux.Handle("GET /api/tasks/{id}", NewGetTaskHandler(log, svc, timeout))
	mux.Handle("PATCH /api/tasks/{id}", NewPatchTaskHandler(log, svc, timeout))
	mux.Handle("DELETE /api/tasks/{id}", NewDeleteTaskHandler(log, svc, timeout))
	mux.Handle("POST /api/tasks/{id}/toggle", NewToggleTaskHandler(log, svc, timeout))

	// stats
	mux.Handle("GET /api/stats", NewStatsHandler(log, svc, timeout))
}

func pathID(r *http.Request) (int64, bool) {
	id, err := parseID(r.PathValue("id"))
	return id, err == nil
}
