package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"taskflow/tasks/core"
)

const (
	categoryColumns = `id, name, color, sort_order`
	taskColumns     = `id, category_id, title, description, priority, due_date, completed, completed_at, created_at, sort_order`
)

type DB struct {
	log  *slog.Logger
	conn *sqlx.DB
}

func New(log *slog.Logger, address string) (*DB, error) {
	db, err := sqlx.Connect("pgx", address)
	if err != nil {
		log.Error("connection problem", "error", err)
		return nil, err
	}
	return &DB{log: log, conn: db}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return core.BackendErr("ping", err)
	}
	return nil
}

// Categories

func (db *DB) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	const q = `
		INSERT INTO categories(name, color, sort_order)
		VALUES ($1, $2, $3)
		RETURNING ` + categoryColumns + `;
	`

	var out core.Category
	if err := db.conn.GetContext(ctx, &out, q, c.Name, c.Color, c.Order); err != nil {
		if isCheckViolation(err) {
			return core.Category{}, core.ErrCategoryInvalidArgs
		}
		return core.Category{}, core.BackendErr("insert category", err)
	}
	return out, nil
}

func (db *DB) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	const q = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	var c core.Category
	if err := db.conn.GetContext(ctx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, core.ErrCategoryNotFound
		}
		return core.Category{}, core.BackendErr("get category", err)
	}
	return c, nil
}

func (db *DB) ListCategories(ctx context.Context) ([]core.Category, error) {
	const q = `SELECT ` + categoryColumns + ` FROM categories ORDER BY sort_order ASC, id ASC`

	out := []core.Category{}
	if err := db.conn.SelectContext(ctx, &out, q); err != nil {
		return nil, core.BackendErr("list categories", err)
	}
	return out, nil
}

func (db *DB) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	const q = `
		UPDATE categories
		SET name = $2,
		    color = $3,
		    sort_order = $4
		WHERE id = $1
		RETURNING ` + categoryColumns + `;
	`

	var out core.Category
	if err := db.conn.GetContext(ctx, &out, q, c.ID, c.Name, c.Color, c.Order); err != nil {
		if isCheckViolation(err) {
			return core.Category{}, core.ErrCategoryInvalidArgs
		}
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, core.ErrCategoryNotFound
		}
		return core.Category{}, core.BackendErr("update category", err)
	}
	return out, nil
}

// DeleteCategory relies on ON DELETE SET NULL to clear tasks.category_id.
func (db *DB) DeleteCategory(ctx context.Context, id int64) error {
	const q = `DELETE FROM categories WHERE id = $1`

	res, err := db.conn.ExecContext(ctx, q, id)
	if err != nil {
		return core.BackendErr("delete category", err)
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return core.ErrCategoryNotFound
	}
	return nil
}

// Tasks

func (db *DB) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	const q = `
		INSERT INTO tasks(category_id, title, description, priority, due_date, completed, completed_at, created_at, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + taskColumns + `;
	`

	var out core.Task
	err := db.conn.GetContext(ctx, &out, q,
		t.CategoryID, t.Title, t.Description, string(t.Priority), t.DueDate,
		t.Completed, t.CompletedAt, t.CreatedAt, t.Order)
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.Task{}, core.ErrCategoryNotFound
		}
		if isCheckViolation(err) {
			return core.Task{}, core.ErrTaskInvalidArgs
		}
		return core.Task{}, core.BackendErr("insert task", err)
	}
	return out, nil
}

func (db *DB) GetTask(ctx context.Context, id int64) (core.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var t core.Task
	if err := db.conn.GetContext(ctx, &t, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Task{}, core.ErrTaskNotFound
		}
		return core.Task{}, core.BackendErr("get task", err)
	}
	return t, nil
}

func (db *DB) ListTasks(ctx context.Context) ([]core.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, id DESC`

	out := []core.Task{}
	if err := db.conn.SelectContext(ctx, &out, q); err != nil {
		return nil, core.BackendErr("list tasks", err)
	}
	return out, nil
}

// UpdateTask writes every mutable column; created_at is never touched.
func (db *DB) UpdateTask(ctx context.Context, t core.Task) (core.Task, error) {
	const q = `
		UPDATE tasks
		SET category_id = $2,
		    title = $3,
		    description = $4,
		    priority = $5,
		    due_date = $6,
		    completed = $7,
		    completed_at = $8,
		    sort_order = $9
		WHERE id = $1
		RETURNING ` + taskColumns + `;
	`

	var out core.Task
	err := db.conn.GetContext(ctx, &out, q,
		t.ID, t.CategoryID, t.Title, t.Description, string(t.Priority), t.DueDate,
		t.Completed, t.CompletedAt, t.Order)
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.Task{}, core.ErrCategoryNotFound
		}
		if isCheckViolation(err) {
			return core.Task{}, core.ErrTaskInvalidArgs
		}
		if errors.Is(err, sql.ErrNoRows) {
			return core.Task{}, core.ErrTaskNotFound
		}
		return core.Task{}, core.BackendErr("update task", err)
	}
	return out, nil
}

func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	const q = `DELETE FROM tasks WHERE id = $1`

	res, err := db.conn.ExecContext(ctx, q, id)
	if err != nil {
		return core.BackendErr("delete task", err)
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return core.ErrTaskNotFound
	}
	return nil
}

// pg helpers

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

var _ core.DB = (*DB)(nil)
