package db

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed migrations/01_create_categories.up.sql
var createCategoriesUp string

//go:embed migrations/02_create_tasks.up.sql
var createTasksUp string

// Migrate creates the categories and tasks tables when they are missing.
func (db *DB) Migrate(ctx context.Context) error {
	db.log.Debug("running tasks db migrations")

	if _, err := db.conn.ExecContext(ctx, createCategoriesUp); err != nil {
		return fmt.Errorf("apply categories migration: %w", err)
	}

	if _, err := db.conn.ExecContext(ctx, createTasksUp); err != nil {
		return fmt.Errorf("apply tasks migration: %w", err)
	}

	db.log.Debug("tasks db migrations finished")
	return nil
}
