package core

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#5B5FDE"

func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	default:
		return "", false
	}
}

// weight orders priorities for sorting; anything unrecognised counts as medium.
func (p Priority) weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

type Task struct {
	ID          int64      `db:"id" json:"id"`
	CategoryID  *int64     `db:"category_id" json:"category_id"` // nil = uncategorized
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Priority    Priority   `db:"priority" json:"priority"`
	DueDate     *Date      `db:"due_date" json:"due_date"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	Order       int64      `db:"sort_order" json:"order"`
}

// Overdue reports whether the task is incomplete and its due day is strictly
// before the calendar day of now. A task due today is not overdue.
func (t Task) Overdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return t.DueDate.Before(DateOf(now))
}

type Category struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Color     string `db:"color" json:"color"`
	Order     int    `db:"sort_order" json:"order"`
	TaskCount int    `db:"-" json:"task_count"`
}

// NewTask is the input of a task creation.
type NewTask struct {
	CategoryID  *int64
	Title       string
	Description string
	Priority    Priority
	DueDate     *Date
	Order       *int64
}

// TaskPatch lists the task fields a partial update may change. A nil field is
// left untouched. CategoryID 0 removes the category, a zero DueDate removes
// the due date.
type TaskPatch struct {
	CategoryID  *int64
	Title       *string
	Description *string
	Priority    *Priority
	DueDate     *Date
	Completed   *bool
	Order       *int64
}

func (p TaskPatch) empty() bool {
	return p.CategoryID == nil && p.Title == nil && p.Description == nil &&
		p.Priority == nil && p.DueDate == nil && p.Completed == nil && p.Order == nil
}

type NewCategory struct {
	Name  string
	Color string
}

type CategoryPatch struct {
	Name  *string
	Color *string
	Order *int
}

func (p CategoryPatch) empty() bool {
	return p.Name == nil && p.Color == nil && p.Order == nil
}
