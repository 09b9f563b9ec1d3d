package tests

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskflow/tasks/core"
)

type fakeDB struct {
	mu sync.RWMutex

	nextCategoryID int64
	nextTaskID     int64

	categories map[int64]core.Category
	tasks      map[int64]core.Task

	// when set, every call fails with it
	fail error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		nextCategoryID: 1,
		nextTaskID:     1,
		categories:     make(map[int64]core.Category),
		tasks:          make(map[int64]core.Task),
	}
}

func (db *fakeDB) setFail(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.fail = err
}

func (db *fakeDB) failure() error {
	if db.fail != nil {
		return core.BackendErr("fake", db.fail)
	}
	return nil
}

func cloneTask(t core.Task) core.Task {
	out := t
	if t.CategoryID != nil {
		cid := *t.CategoryID
		out.CategoryID = &cid
	}
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		out.CompletedAt = &at
	}
	return out
}

func (db *fakeDB) Ping(context.Context) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.failure()
}

func (db *fakeDB) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if strings.TrimSpace(c.Name) == "" {
		return core.Category{}, core.ErrCategoryInvalidArgs
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.failure(); err != nil {
		return core.Category{}, err
	}

	c.ID = db.nextCategoryID
	db.nextCategoryID++
	db.categories[c.ID] = c

	return c, nil
}

func (db *fakeDB) GetCategory(_ context.Context, id int64) (core.Category, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if err := db.failure(); err != nil {
		return core.Category{}, err
	}

	category, ok := db.categories[id]
	if !ok {
		return core.Category{}, core.ErrCategoryNotFound
	}
	return category, nil
}

func (db *fakeDB) ListCategories(context.Context) ([]core.Category, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if err := db.failure(); err != nil {
		return nil, err
	}

	out := make([]core.Category, 0, len(db.categories))
	for _, category := range db.categories {
		out = append(out, category)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (db *fakeDB) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if c.ID <= 0 || strings.TrimSpace(c.Name) == "" {
		return core.Category{}, core.ErrCategoryInvalidArgs
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.failure(); err != nil {
		return core.Category{}, err
	}

	if _, ok := db.categories[c.ID]; !ok {
		return core.Category{}, core.ErrCategoryNotFound
	}

	db.categories[c.ID] = c
	return c, nil
}

func (db *fakeDB) DeleteCategory(_ context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.failure(); err != nil {
		return err
	}

	if _, ok := db.categories[id]; !ok {
		return core.ErrCategoryNotFound
	}

	delete(db.categories, id)

	for taskID, task := range db.tasks {
		if task.CategoryID != nil && *task.CategoryID == id {
			task.CategoryID = nil
			db.tasks[taskID] = task
		}
	}

	return nil
}

func (db *fakeDB) CreateTask(_ context.Context, t core.Task) (core.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return core.Task{}, core.ErrTaskInvalidArgs
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.failure(); err != nil {
		return core.Task{}, err
	}

	if t.CategoryID != nil {
		if _, ok := db.categories[*t.CategoryID]; !ok {
			return core.Task{}, core.ErrCategoryNotFound
		}
	}

	t.ID = db.nextTaskID
	db.nextTaskID++
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	db.tasks[t.ID] = cloneTask(t)
	return cloneTask(t), nil
}

func (db *fakeDB) GetTask(_ context.Context, id int64) (core.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if err := db.failure(); err != nil {
		return core.Task{}, err
	}

	task, ok := db.tasks[id]
	if !ok {
		return core.Task{}, core.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

func (db *fakeDB) ListTasks(context.Context) ([]core.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if err := db.failure(); err != nil {
		return nil, err
	}

	out := make([]core.Task, 0, len(db.tasks))
	for _, task := range db.tasks {
		out = append(out, cloneTask(task))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID > out[j].ID
	})

	return out, nil
}

func (db *fakeDB) UpdateTask(_ context.Context, t core.Task) (core.Task, error) {
	if t.ID <= 0 || strings.TrimSpace(t.Title) == "" {
		return core.Task{}, core.ErrTaskInvalidArgs
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.failure(); err != nil {
		return core.Task{}, err
	}

	current, ok := db.tasks[t.ID]
	if !ok {
		return core.Task{}, core.ErrTaskNotFound
	}

	if t.CategoryID != nil {
		if _, ok := db.categories[*t.CategoryID]; !ok {
			return core.Task{}, core.ErrCategoryNotFound
		}
	}

	t.CreatedAt = current.CreatedAt

	db.tasks[t.ID] = cloneTask(t)
	return cloneTask(t), nil
}

func (db *fakeDB) DeleteTask(_ context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.failure(); err != nil {
		return err
	}

	if _, ok := db.tasks[id]; !ok {
		return core.ErrTaskNotFound
	}

	delete(db.tasks, id)
	return nil
}

func (db *fakeDB) count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.tasks)
}
