package records

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"taskflow/tasks/core"
)

// DB keeps tasks and categories in a remote record-storage service. Ids are
// assigned by the remote side.
type DB struct {
	log *slog.Logger
	api *client
}

func New(log *slog.Logger, baseURL, projectID, publicKey string, timeout time.Duration) *DB {
	return &DB{
		log: log,
		api: newClient(log, baseURL, projectID, publicKey, timeout),
	}
}

func (db *DB) Ping(ctx context.Context) error {
	_, err := db.api.fetchRecords(ctx, categoryTable, fetchParams{
		Fields:     fields(fieldID),
		PagingInfo: &paging{Limit: 1},
	})
	if err != nil {
		return core.BackendErr("ping", err)
	}
	return nil
}

// Categories

func (db *DB) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.Name == "" {
		return core.Category{}, core.ErrCategoryInvalidArgs
	}

	rec := toCategoryRecord(c)
	rec.ID = 0

	data, err := db.api.createRecord(ctx, categoryTable, rec)
	if err != nil {
		return core.Category{}, core.BackendErr("create category", err)
	}
	return decodeCategory(data)
}

func (db *DB) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	data, err := db.api.getRecordByID(ctx, categoryTable, id, fetchParams{Fields: categoryFields})
	if err != nil {
		if errors.Is(err, errNoRecord) {
			return core.Category{}, core.ErrCategoryNotFound
		}
		return core.Category{}, core.BackendErr("get category", err)
	}
	return decodeCategory(data)
}

func (db *DB) ListCategories(ctx context.Context) ([]core.Category, error) {
	data, err := db.api.fetchRecords(ctx, categoryTable, fetchParams{
		Fields:  categoryFields,
		OrderBy: []orderBy{{FieldName: fieldOrder, SortType: "ASC"}},
	})
	if err != nil {
		return nil, core.BackendErr("list categories", err)
	}

	var recs []categoryRecord
	if err := decode(data, &recs); err != nil {
		return nil, core.BackendErr("decode categories", err)
	}

	out := make([]core.Category, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toCore())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (db *DB) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID <= 0 || c.Name == "" {
		return core.Category{}, core.ErrCategoryInvalidArgs
	}
	if _, err := db.GetCategory(ctx, c.ID); err != nil {
		return core.Category{}, err
	}

	out, err := db.api.updateRecords(ctx, categoryTable, []any{toCategoryRecord(c)})
	if err != nil {
		return core.Category{}, core.BackendErr("update category", err)
	}
	if len(out) == 0 {
		return c, nil
	}
	return decodeCategory(out[0])
}

// DeleteCategory clears category_id_c on the tasks that point at the
// category and only then removes it, so a failed call never leaves a task
// referencing a missing category.
func (db *DB) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := db.GetCategory(ctx, id); err != nil {
		return err
	}

	data, err := db.api.fetchRecords(ctx, taskTable, fetchParams{
		Fields: taskFields,
		Where:  []where{{FieldName: fieldCategoryID, Operator: "EqualTo", Values: []any{id}}},
	})
	if err != nil {
		return core.BackendErr("fetch category tasks", err)
	}

	var recs []taskRecord
	if err := decode(data, &recs); err != nil {
		return core.BackendErr("decode tasks", err)
	}

	updates := make([]any, 0, len(recs))
	for _, r := range recs {
		if r.CategoryID == nil || *r.CategoryID != id {
			continue
		}
		r.CategoryID = nil
		updates = append(updates, r)
	}
	if len(updates) > 0 {
		if _, err := db.api.updateRecords(ctx, taskTable, updates); err != nil {
			return core.BackendErr("clear task categories", err)
		}
		db.log.Debug("category removed from tasks", "category_id", id, "tasks", len(updates))
	}

	if err := db.api.deleteRecord(ctx, categoryTable, id); err != nil {
		if errors.Is(err, errNoRecord) {
			return core.ErrCategoryNotFound
		}
		return core.BackendErr("delete category", err)
	}
	return nil
}

// Tasks

func (db *DB) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	if t.Title == "" {
		return core.Task{}, core.ErrTaskInvalidArgs
	}
	if t.CategoryID != nil {
		if _, err := db.GetCategory(ctx, *t.CategoryID); err != nil {
			return core.Task{}, err
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	rec := toTaskRecord(t)
	rec.ID = 0

	data, err := db.api.createRecord(ctx, taskTable, rec)
	if err != nil {
		return core.Task{}, core.BackendErr("create task", err)
	}
	return decodeTask(data)
}

func (db *DB) GetTask(ctx context.Context, id int64) (core.Task, error) {
	data, err := db.api.getRecordByID(ctx, taskTable, id, fetchParams{Fields: taskFields})
	if err != nil {
		if errors.Is(err, errNoRecord) {
			return core.Task{}, core.ErrTaskNotFound
		}
		return core.Task{}, core.BackendErr("get task", err)
	}
	return decodeTask(data)
}

func (db *DB) ListTasks(ctx context.Context) ([]core.Task, error) {
	data, err := db.api.fetchRecords(ctx, taskTable, fetchParams{
		Fields:  taskFields,
		OrderBy: []orderBy{{FieldName: fieldCreatedAt, SortType: "DESC"}},
	})
	if err != nil {
		return nil, core.BackendErr("list tasks", err)
	}

	var recs []taskRecord
	if err := decode(data, &recs); err != nil {
		return nil, core.BackendErr("decode tasks", err)
	}

	out := make([]core.Task, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toCore())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (db *DB) UpdateTask(ctx context.Context, t core.Task) (core.Task, error) {
	if t.ID <= 0 || t.Title == "" {
		return core.Task{}, core.ErrTaskInvalidArgs
	}

	cur, err := db.GetTask(ctx, t.ID)
	if err != nil {
		return core.Task{}, err
	}
	if t.CategoryID != nil {
		if _, err := db.GetCategory(ctx, *t.CategoryID); err != nil {
			return core.Task{}, err
		}
	}
	t.CreatedAt = cur.CreatedAt

	out, err := db.api.updateRecords(ctx, taskTable, []any{toTaskRecord(t)})
	if err != nil {
		return core.Task{}, core.BackendErr("update task", err)
	}
	if len(out) == 0 {
		return t, nil
	}
	return decodeTask(out[0])
}

// DeleteTask looks the task up first: the remote reports a missing record
// as a failed result, which cannot be told apart from other failures.
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	if _, err := db.GetTask(ctx, id); err != nil {
		return err
	}
	if err := db.api.deleteRecord(ctx, taskTable, id); err != nil {
		if errors.Is(err, errNoRecord) {
			return core.ErrTaskNotFound
		}
		return core.BackendErr("delete task", err)
	}
	return nil
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

func decodeTask(data json.RawMessage) (core.Task, error) {
	var r taskRecord
	if err := decode(data, &r); err != nil {
		return core.Task{}, core.BackendErr("decode task", err)
	}
	return r.toCore(), nil
}

func decodeCategory(data json.RawMessage) (core.Category, error) {
	var r categoryRecord
	if err := decode(data, &r); err != nil {
		return core.Category{}, core.BackendErr("decode category", err)
	}
	return r.toCore(), nil
}

var _ core.DB = (*DB)(nil)
