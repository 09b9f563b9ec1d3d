package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"taskflow/tasks/core"
)

const maxBodyBytes = 1 << 20

type CreateCategoryIn struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type PatchCategoryIn struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
	Order *int    `json:"order,omitempty"`
}

type CreateTaskIn struct {
	CategoryID  *int64     `json:"category_id,omitempty"` // nil or 0 - no category
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *core.Date `json:"due_date,omitempty"`
	Order       *int64     `json:"order,omitempty"`
}

type PatchTaskIn struct {
	CategoryID  *int64     `json:"category_id,omitempty"` // 0 - remove category
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *core.Date `json:"due_date,omitempty"` // "" - remove due date
	Completed   *bool      `json:"completed,omitempty"`
	Order       *int64     `json:"order,omitempty"`
}

// EmptyOut is the message shown for an empty task list.
type EmptyOut struct {
	Reason      core.Empty `json:"reason"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

type TaskListOut struct {
	core.TaskView
	Message *EmptyOut `json:"message,omitempty"`
}

// Decode reads a single JSON object from the request body. Unknown fields
// and trailing data are rejected.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid json: trailing data")
	}
	return nil
}

// EmptyMessage turns an empty-view reason into user-facing text.
// categoryName is only used for core.EmptyCategoryEmpty.
func EmptyMessage(reason core.Empty, query, categoryName string) *EmptyOut {
	out := &EmptyOut{Reason: reason}

	switch reason {
	case core.EmptyNone:
		return nil
	case core.EmptyNoMatch:
		out.Title = "No matching tasks"
		out.Description = fmt.Sprintf("No tasks match %q", query)
	case core.EmptyNoCompleted:
		out.Title = "No completed tasks"
		out.Description = "Complete some tasks to see them here"
	case core.EmptyNoOverdue:
		out.Title = "No overdue tasks"
		out.Description = "Great job staying on top of your deadlines!"
	case core.EmptyCategoryEmpty:
		if categoryName == "" {
			categoryName = "category"
		}
		out.Title = "No tasks in " + categoryName
		out.Description = "Add tasks to this category to see them here"
	default:
		out.Title = "No tasks found"
		out.Description = "Create your first task to get started"
	}
	return out
}
