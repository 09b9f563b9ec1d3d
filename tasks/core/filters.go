package core

import (
	"sort"
	"strings"
	"time"
)

type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterActive    StatusFilter = "active"
	FilterCompleted StatusFilter = "completed"
	FilterOverdue   StatusFilter = "overdue"
)

// ParseStatusFilter maps user input to a StatusFilter. Empty input means all.
func ParseStatusFilter(s string) (StatusFilter, bool) {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, true
	case FilterActive:
		return FilterActive, true
	case FilterCompleted:
		return FilterCompleted, true
	case FilterOverdue:
		return FilterOverdue, true
	default:
		return "", false
	}
}

// Criteria selects the visible part of the task list.
type Criteria struct {
	Status     StatusFilter `json:"status"`
	Query      string       `json:"query"`
	CategoryID *int64       `json:"category_id"`
}

func (c Criteria) matches(t Task, query string, now time.Time) bool {
	if query != "" &&
		!strings.Contains(strings.ToLower(t.Title), query) &&
		!strings.Contains(strings.ToLower(t.Description), query) {
		return false
	}

	if c.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *c.CategoryID) {
		return false
	}

	switch c.Status {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	case FilterOverdue:
		return t.Overdue(now)
	default:
		return true
	}
}

// FilterTasks returns the tasks matching c, ordered for display. The input
// slice is left untouched.
func FilterTasks(tasks []Task, c Criteria, now time.Time) []Task {
	query := strings.ToLower(strings.TrimSpace(c.Query))

	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if c.matches(t, query, now) {
			out = append(out, t)
		}
	}

	SortTasks(out)
	return out
}

// SortTasks orders tasks in place: open before completed, then priority high
// to low, then dated before undated with the earliest due day first, then the
// newest task first. Ties keep their relative order.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return lessTask(tasks[i], tasks[j])
	})
}

func lessTask(a, b Task) bool {
	if a.Completed != b.Completed {
		return !a.Completed
	}

	if pa, pb := a.Priority.weight(), b.Priority.weight(); pa != pb {
		return pa > pb
	}

	switch {
	case a.DueDate != nil && b.DueDate != nil:
		if *a.DueDate != *b.DueDate {
			return a.DueDate.Before(*b.DueDate)
		}
	case a.DueDate != nil:
		return true
	case b.DueDate != nil:
		return false
	}

	return a.CreatedAt.After(b.CreatedAt)
}

// FilterCounts holds the number of tasks behind every status tab.
type FilterCounts struct {
	All       int `json:"all"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

func CountByStatus(tasks []Task, now time.Time) FilterCounts {
	c := FilterCounts{All: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		} else {
			c.Active++
		}
		if t.Overdue(now) {
			c.Overdue++
		}
	}
	return c
}

// Empty explains why a filtered view has no tasks.
type Empty string

const (
	EmptyNone          Empty = ""
	EmptyNoMatch       Empty = "no_match"
	EmptyNoCompleted   Empty = "no_completed"
	EmptyNoOverdue     Empty = "no_overdue"
	EmptyCategoryEmpty Empty = "empty_category"
	EmptyNoTasks       Empty = "no_tasks"
)

// EmptyReason picks the reason for an empty view. The search query wins over
// the status filter, which wins over the category selection.
func EmptyReason(c Criteria, visible int) Empty {
	switch {
	case visible > 0:
		return EmptyNone
	case strings.TrimSpace(c.Query) != "":
		return EmptyNoMatch
	case c.Status == FilterCompleted:
		return EmptyNoCompleted
	case c.Status == FilterOverdue:
		return EmptyNoOverdue
	case c.CategoryID != nil:
		return EmptyCategoryEmpty
	default:
		return EmptyNoTasks
	}
}

// TaskView is a filtered task list together with what produced it.
type TaskView struct {
	Tasks    []Task       `json:"tasks"`
	Criteria Criteria     `json:"criteria"`
	Counts   FilterCounts `json:"counts"`
	Empty    Empty        `json:"empty,omitempty"`
}
