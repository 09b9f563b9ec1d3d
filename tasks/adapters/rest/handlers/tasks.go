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

func NewCreateTaskHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in rest.CreateTaskIn
		if err := rest.Decode(r, &in); err != nil {
			res.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.CreateTask(ctx, core.NewTask{
			CategoryID:  in.CategoryID,
			Title:       in.Title,
			Description: in.Description,
			Priority:    core.Priority(in.Priority),
			DueDate:     in.DueDate,
			Order:       in.Order,
		})
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		log.Debug("task created", "id", t.ID)
		res.Json(w, t, http.StatusCreated)
	}
}

func NewGetTaskHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.GetTask(ctx, id)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, t, http.StatusOK)
	}
}

// NewListTasksHandler serves the filtered view: ?status=all|active|completed|overdue&q=&category_id=
func NewListTasksHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		status, ok := core.ParseStatusFilter(q.Get("status"))
		if !ok {
			res.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		c := core.Criteria{Status: status, Query: q.Get("q")}

		if v := q.Get("category_id"); v != "" {
			id, err := parseID(v)
			if err != nil {
				res.Error(w, "invalid category_id", http.StatusBadRequest)
				return
			}
			c.CategoryID = &id
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		view, err := svc.FilterTasks(ctx, c)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}

		out := rest.TaskListOut{TaskView: view}
		if view.Empty != core.EmptyNone {
			var name string
			if view.Empty == core.EmptyCategoryEmpty {
				if cat, err := svc.GetCategory(ctx, *c.CategoryID); err == nil {
					name = cat.Name
				}
			}
			out.Message = rest.EmptyMessage(view.Empty, view.Criteria.Query, name)
		}
		res.Json(w, out, http.StatusOK)
	}
}

func NewPatchTaskHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		var in rest.PatchTaskIn
		if err := rest.Decode(r, &in); err != nil {
			res.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p := core.TaskPatch{
			CategoryID:  in.CategoryID,
			Title:       in.Title,
			Description: in.Description,
			DueDate:     in.DueDate,
			Completed:   in.Completed,
			Order:       in.Order,
		}
		if in.Priority != nil {
			pr, ok := core.ParsePriority(*in.Priority)
			if !ok {
				res.Error(w, "invalid priority", http.StatusBadRequest)
				return
			}
			p.Priority = &pr
		}

		if p.CategoryID == nil && p.Title == nil && p.Description == nil && p.Priority == nil &&
			p.DueDate == nil && p.Completed == nil && p.Order == nil {
			res.Error(w, "no fields to update", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.PatchTask(ctx, id, p)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, t, http.StatusOK)
	}
}

func NewToggleTaskHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.ToggleComplete(ctx, id)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, t, http.StatusOK)
	}
}

func NewDeleteTaskHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := svc.DeleteTask(ctx, id); err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		log.Debug("task deleted", "id", id)
		res.OK(w)
	}
}
