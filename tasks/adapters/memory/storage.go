package memory

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"taskflow/tasks/core"
)

// DB is the in-process mock backend. It keeps everything in maps guarded by
// one RWMutex and can simulate I/O latency.
type DB struct {
	log *slog.Logger

	minDelay time.Duration
	maxDelay time.Duration

	mu sync.RWMutex

	// highest ids ever issued, so deleted ids never come back
	lastCategoryID int64
	lastTaskID     int64

	categories map[int64]core.Category
	tasks      map[int64]core.Task
}

type Option func(*DB)

// WithLatency makes every call wait a random duration in [min, max].
func WithLatency(min, max time.Duration) Option {
	return func(db *DB) {
		if max < min {
			max = min
		}
		db.minDelay, db.maxDelay = min, max
	}
}

func New(log *slog.Logger, opts ...Option) *DB {
	db := &DB{
		log:        log,
		categories: make(map[int64]core.Category),
		tasks:      make(map[int64]core.Task),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Load replaces the whole content with the dataset. Tasks that reference a
// category missing from the dataset are loaded without one.
func (db *DB) Load(ds Dataset) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.categories = make(map[int64]core.Category, len(ds.Categories))
	db.tasks = make(map[int64]core.Task, len(ds.Tasks))
	db.lastCategoryID, db.lastTaskID = 0, 0

	for _, c := range ds.Categories {
		c.TaskCount = 0
		db.categories[c.ID] = c
		db.lastCategoryID = max(db.lastCategoryID, c.ID)
	}
	for _, t := range ds.Tasks {
		t = cloneTask(t)
		if t.CategoryID != nil {
			if _, ok := db.categories[*t.CategoryID]; !ok {
				db.log.Warn("seed task references unknown category", "task_id", t.ID, "category_id", *t.CategoryID)
				t.CategoryID = nil
			}
		}
		db.tasks[t.ID] = t
		db.lastTaskID = max(db.lastTaskID, t.ID)
	}

	db.log.Debug("mock dataset loaded", "categories", len(db.categories), "tasks", len(db.tasks))
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

func (db *DB) delay(ctx context.Context) error {
	if db.maxDelay <= 0 {
		return nil
	}

	d := db.minDelay
	if spread := db.maxDelay - db.minDelay; spread > 0 {
		d += time.Duration(rand.Int63n(int64(spread)))
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return core.BackendErr("mock delay", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (db *DB) Ping(ctx context.Context) error {
	return db.delay(ctx)
}

// Categories

func (db *DB) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := db.delay(ctx); err != nil {
		return core.Category{}, err
	}
	if c.Name == "" {
		return core.Category{}, core.ErrCategoryInvalidArgs
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	c.ID = nextID(db.lastCategoryID, db.categories)
	c.TaskCount = 0
	db.lastCategoryID = c.ID
	db.categories[c.ID] = c

	return c, nil
}

func (db *DB) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	if err := db.delay(ctx); err != nil {
		return core.Category{}, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	c, ok := db.categories[id]
	if !ok {
		return core.Category{}, core.ErrCategoryNotFound
	}
	return c, nil
}

func (db *DB) ListCategories(ctx context.Context) ([]core.Category, error) {
	if err := db.delay(ctx); err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]core.Category, 0, len(db.categories))
	for _, c := range db.categories {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (db *DB) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := db.delay(ctx); err != nil {
		return core.Category{}, err
	}
	if c.ID <= 0 || c.Name == "" {
		return core.Category{}, core.ErrCategoryInvalidArgs
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.categories[c.ID]; !ok {
		return core.Category{}, core.ErrCategoryNotFound
	}

	c.TaskCount = 0
	db.categories[c.ID] = c
	return c, nil
}

func (db *DB) DeleteCategory(ctx context.Context, id int64) error {
	if err := db.delay(ctx); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

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

// Tasks

func (db *DB) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	if err := db.delay(ctx); err != nil {
		return core.Task{}, err
	}
	if t.Title == "" {
		return core.Task{}, core.ErrTaskInvalidArgs
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if t.CategoryID != nil {
		if _, ok := db.categories[*t.CategoryID]; !ok {
			return core.Task{}, core.ErrCategoryNotFound
		}
	}

	t.ID = nextID(db.lastTaskID, db.tasks)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	db.lastTaskID = t.ID

	db.tasks[t.ID] = cloneTask(t)
	return cloneTask(t), nil
}

func (db *DB) GetTask(ctx context.Context, id int64) (core.Task, error) {
	if err := db.delay(ctx); err != nil {
		return core.Task{}, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	t, ok := db.tasks[id]
	if !ok {
		return core.Task{}, core.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

// ListTasks returns every task, newest first.
func (db *DB) ListTasks(ctx context.Context) ([]core.Task, error) {
	if err := db.delay(ctx); err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]core.Task, 0, len(db.tasks))
	for _, t := range db.tasks {
		out = append(out, cloneTask(t))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

func (db *DB) UpdateTask(ctx context.Context, t core.Task) (core.Task, error) {
	if err := db.delay(ctx); err != nil {
		return core.Task{}, err
	}
	if t.ID <= 0 || t.Title == "" {
		return core.Task{}, core.ErrTaskInvalidArgs
	}

	db.mu.Lock()
	defer db.mu.Unlock()

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

func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	if err := db.delay(ctx); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.tasks[id]; !ok {
		return core.ErrTaskNotFound
	}

	delete(db.tasks, id)
	return nil
}

// nextID is max(existing ids, last issued id) + 1.
func nextID[T any](last int64, items map[int64]T) int64 {
	id := last
	for existing := range items {
		id = max(id, existing)
	}
	return id + 1
}

var _ core.DB = (*DB)(nil)
