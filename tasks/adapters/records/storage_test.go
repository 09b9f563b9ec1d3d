package records

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/tasks/core"
)

// fakeRemote is an in-memory record API. Records are kept as raw maps so
// tests can look at the column names that went over the wire.
type fakeRemote struct {
	mu     sync.Mutex
	lastID int64
	tables map[string]map[int64]map[string]any
	fail   bool
	// failMethod makes only requests with this HTTP method fail.
	failMethod string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{tables: map[string]map[int64]map[string]any{
		taskTable:     {},
		categoryTable: {},
	}}
}

func (f *fakeRemote) handler() http.Handler {
	mux := http.NewServeMux()

	reply := func(w http.ResponseWriter, code int, env map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(env)
	}

	check := func(w http.ResponseWriter, r *http.Request) (map[int64]map[string]any, bool) {
		if r.Header.Get("X-Project-Id") != "proj" || r.Header.Get("X-Public-Key") != "key" {
			reply(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "unauthorized"})
			return nil, false
		}
		if f.fail || f.failMethod == r.Method {
			reply(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "boom"})
			return nil, false
		}
		tbl, ok := f.tables[r.PathValue("table")]
		if !ok {
			reply(w, http.StatusBadRequest, map[string]any{"success": false, "message": "unknown table"})
			return nil, false
		}
		return tbl, true
	}

	mux.HandleFunc("POST /tables/{table}/fetch", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		tbl, ok := check(w, r)
		if !ok {
			return
		}

		var p fetchParams
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			reply(w, http.StatusBadRequest, map[string]any{"success": false, "message": "bad body"})
			return
		}

		out := []map[string]any{}
		for _, rec := range tbl {
			match := true
			for _, cond := range p.Where {
				if rec[cond.FieldName] != cond.Values[0] {
					match = false
				}
			}
			if match {
				out = append(out, rec)
			}
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "data": out})
	})

	mux.HandleFunc("POST /tables/{table}/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		tbl, ok := check(w, r)
		if !ok {
			return
		}

		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		rec, ok := tbl[id]
		if !ok {
			reply(w, http.StatusNotFound, map[string]any{"success": false, "message": "not found"})
			return
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "data": rec})
	})

	mux.HandleFunc("POST /tables/{table}/records", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		tbl, ok := check(w, r)
		if !ok {
			return
		}

		var p writeParams[map[string]any]
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			reply(w, http.StatusBadRequest, map[string]any{"success": false, "message": "bad body"})
			return
		}

		results := []map[string]any{}
		for _, rec := range p.Records {
			f.lastID++
			rec[fieldID] = float64(f.lastID)
			tbl[f.lastID] = rec
			results = append(results, map[string]any{"success": true, "data": rec})
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "results": results})
	})

	mux.HandleFunc("PATCH /tables/{table}/records", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		tbl, ok := check(w, r)
		if !ok {
			return
		}

		var p writeParams[map[string]any]
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			reply(w, http.StatusBadRequest, map[string]any{"success": false, "message": "bad body"})
			return
		}

		results := []map[string]any{}
		for _, rec := range p.Records {
			id := int64(rec[fieldID].(float64))
			cur, ok := tbl[id]
			if !ok {
				results = append(results, map[string]any{"success": false, "message": "no such record"})
				continue
			}
			for k, v := range rec {
				cur[k] = v
			}
			results = append(results, map[string]any{"success": true, "data": cur})
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "results": results})
	})

	mux.HandleFunc("DELETE /tables/{table}/records", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		tbl, ok := check(w, r)
		if !ok {
			return
		}

		var p deleteParams
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			reply(w, http.StatusBadRequest, map[string]any{"success": false, "message": "bad body"})
			return
		}

		// Missing ids are reported per record with a 200 status.
		results := []map[string]any{}
		for _, id := range p.RecordIDs {
			if _, ok := tbl[id]; !ok {
				results = append(results, map[string]any{"success": false, "message": "Record does not exist"})
				continue
			}
			delete(tbl, id)
			results = append(results, map[string]any{"success": true})
		}
		reply(w, http.StatusOK, map[string]any{"success": true, "results": results})
	})

	return mux
}

func newTestDB(t *testing.T) (*DB, *fakeRemote) {
	t.Helper()

	remote := newFakeRemote()
	srv := httptest.NewServer(remote.handler())
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, srv.URL+"/", "proj", "key", 2*time.Second), remote
}

func TestRecords_TaskFieldsTranslated(t *testing.T) {
	t.Parallel()

	db, remote := newTestDB(t)
	ctx := context.Background()

	cat, err := db.CreateCategory(ctx, core.Category{Name: "Work", Color: "#3B82F6", Order: 1})
	require.NoError(t, err)
	require.NotZero(t, cat.ID)

	due := core.NewDate(2024, time.March, 9)
	created := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

	task, err := db.CreateTask(ctx, core.Task{
		CategoryID:  &cat.ID,
		Title:       "Write report",
		Description: "Q1",
		Priority:    core.PriorityHigh,
		DueDate:     &due,
		CreatedAt:   created,
		Order:       42,
	})
	require.NoError(t, err)

	remote.mu.Lock()
	raw := remote.tables[taskTable][task.ID]
	remote.mu.Unlock()

	assert.Equal(t, "Write report", raw[fieldTitle])
	assert.Equal(t, "Q1", raw[fieldDescription])
	assert.Equal(t, "high", raw[fieldPriority])
	assert.Equal(t, "2024-03-09", raw[fieldDueDate])
	assert.Equal(t, float64(cat.ID), raw[fieldCategoryID])
	assert.Equal(t, false, raw[fieldCompleted])
	assert.Nil(t, raw[fieldCompletedAt])
	assert.Equal(t, float64(42), raw[fieldOrder])
	assert.NotContains(t, raw, "title")

	got, err := db.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, core.PriorityHigh, got.Priority)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, due, *got.DueDate)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, cat.ID, *got.CategoryID)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestRecords_NotFound(t *testing.T) {
	t.Parallel()

	db, _ := newTestDB(t)
	ctx := context.Background()

	_, err := db.GetTask(ctx, 999)
	assert.ErrorIs(t, err, core.ErrTaskNotFound)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = db.UpdateTask(ctx, core.Task{ID: 999, Title: "x"})
	assert.ErrorIs(t, err, core.ErrTaskNotFound)

	err = db.DeleteTask(ctx, 999)
	assert.ErrorIs(t, err, core.ErrTaskNotFound)

	err = db.DeleteCategory(ctx, 999)
	assert.ErrorIs(t, err, core.ErrCategoryNotFound)

	missing := int64(77)
	_, err = db.CreateTask(ctx, core.Task{Title: "x", CategoryID: &missing})
	assert.ErrorIs(t, err, core.ErrCategoryNotFound)
}

func TestRecords_DeleteCategoryClearsTasks(t *testing.T) {
	t.Parallel()

	db, _ := newTestDB(t)
	ctx := context.Background()

	cat, err := db.CreateCategory(ctx, core.Category{Name: "Home", Color: "#10B981", Order: 1})
	require.NoError(t, err)

	tagged, err := db.CreateTask(ctx, core.Task{Title: "Dishes", Priority: core.PriorityLow, CategoryID: &cat.ID})
	require.NoError(t, err)
	plain, err := db.CreateTask(ctx, core.Task{Title: "Call mom", Priority: core.PriorityMedium})
	require.NoError(t, err)

	require.NoError(t, db.DeleteCategory(ctx, cat.ID))

	_, err = db.GetCategory(ctx, cat.ID)
	assert.ErrorIs(t, err, core.ErrCategoryNotFound)

	got, err := db.GetTask(ctx, tagged.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	got, err = db.GetTask(ctx, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, "Call mom", got.Title)
}

func TestRecords_DeleteMissingTaskIsNotFound(t *testing.T) {
	t.Parallel()

	db, remote := newTestDB(t)
	ctx := context.Background()

	task, err := db.CreateTask(ctx, core.Task{Title: "Once", Priority: core.PriorityLow})
	require.NoError(t, err)
	require.NoError(t, db.DeleteTask(ctx, task.ID))

	err = db.DeleteTask(ctx, task.ID)
	assert.ErrorIs(t, err, core.ErrTaskNotFound)
	assert.NotErrorIs(t, err, core.ErrBackend)

	remote.mu.Lock()
	assert.Empty(t, remote.tables[taskTable])
	remote.mu.Unlock()
}

func TestRecords_DeleteCategoryFailureKeepsReferencesValid(t *testing.T) {
	t.Parallel()

	db, remote := newTestDB(t)
	ctx := context.Background()

	cat, err := db.CreateCategory(ctx, core.Category{Name: "Work", Color: "#3B82F6", Order: 1})
	require.NoError(t, err)
	task, err := db.CreateTask(ctx, core.Task{Title: "Report", Priority: core.PriorityHigh, CategoryID: &cat.ID})
	require.NoError(t, err)

	setFailMethod := func(m string) {
		remote.mu.Lock()
		remote.failMethod = m
		remote.mu.Unlock()
	}

	// Clearing the tasks fails: nothing is removed.
	setFailMethod(http.MethodPatch)
	err = db.DeleteCategory(ctx, cat.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackend)
	setFailMethod("")

	_, err = db.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	got, err := db.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, cat.ID, *got.CategoryID)

	// Removing the category fails after the tasks were cleared: the
	// category survives and no task points at a missing one.
	setFailMethod(http.MethodDelete)
	err = db.DeleteCategory(ctx, cat.ID)
	assert.ErrorIs(t, err, core.ErrBackend)
	setFailMethod("")

	_, err = db.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	got, err = db.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	require.NoError(t, db.DeleteCategory(ctx, cat.ID))
	_, err = db.GetCategory(ctx, cat.ID)
	assert.ErrorIs(t, err, core.ErrCategoryNotFound)
}

func TestRecords_UpdateKeepsCreatedAt(t *testing.T) {
	t.Parallel()

	db, _ := newTestDB(t)
	ctx := context.Background()

	created := time.Date(2024, time.January, 5, 8, 0, 0, 0, time.UTC)
	task, err := db.CreateTask(ctx, core.Task{Title: "Plan", Priority: core.PriorityMedium, CreatedAt: created})
	require.NoError(t, err)

	doneAt := time.Date(2024, time.January, 6, 9, 30, 0, 0, time.UTC)
	task.Completed = true
	task.CompletedAt = &doneAt
	task.CreatedAt = time.Now()

	updated, err := db.UpdateTask(ctx, task)
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.CompletedAt)
	assert.True(t, doneAt.Equal(*updated.CompletedAt))
	assert.True(t, created.Equal(updated.CreatedAt))
}

func TestRecords_ListOrder(t *testing.T) {
	t.Parallel()

	db, _ := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		_, err := db.CreateTask(ctx, core.Task{
			Title:     title,
			Priority:  core.PriorityMedium,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	tasks, err := db.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "third", tasks[0].Title)
	assert.Equal(t, "first", tasks[2].Title)

	for i, name := range []string{"b", "a"} {
		_, err := db.CreateCategory(ctx, core.Category{Name: name, Color: "#000", Order: 2 - i})
		require.NoError(t, err)
	}
	cats, err := db.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "a", cats[0].Name)
}

func TestRecords_RemoteFailure(t *testing.T) {
	t.Parallel()

	db, remote := newTestDB(t)
	remote.mu.Lock()
	remote.fail = true
	remote.mu.Unlock()

	_, err := db.ListTasks(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackend)
	assert.Contains(t, err.Error(), "boom")

	assert.ErrorIs(t, db.Ping(context.Background()), core.ErrBackend)
}
