package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"taskflow/tasks/adapters/rest"
	"taskflow/tasks/core"
	"taskflow/tasks/pkg/res"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}

func NewCreateCategoryHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in rest.CreateCategoryIn
		if err := rest.Decode(r, &in); err != nil {
			res.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		c, err := svc.CreateCategory(ctx, core.NewCategory{Name: in.Name, Color: in.Color})
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		log.Debug("category created", "id", c.ID)
		res.Json(w, c, http.StatusCreated)
	}
}

func NewGetCategoryHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		c, err := svc.GetCategory(ctx, id)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, c, http.StatusOK)
	}
}

func NewListCategoriesHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		items, err := svc.ListCategories(ctx)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, map[string]any{"categories": items}, http.StatusOK)
	}
}

func NewPatchCategoryHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		var in rest.PatchCategoryIn
		if err := rest.Decode(r, &in); err != nil {
			res.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p := core.CategoryPatch{Name: in.Name, Color: in.Color, Order: in.Order}
		if p.Name == nil && p.Color == nil && p.Order == nil {
			res.Error(w, "no fields to update", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		c, err := svc.PatchCategory(ctx, id, p)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, c, http.StatusOK)
	}
}

func NewDeleteCategoryHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			res.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := svc.DeleteCategory(ctx, id); err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		log.Debug("category deleted", "id", id)
		res.OK(w)
	}
}
