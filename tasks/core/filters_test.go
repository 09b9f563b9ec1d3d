package core

import (
	"testing"
	"time"
)

var now = time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) *Date {
	dd := NewDate(y, m, d)
	return &dd
}

func ids(tasks []Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterTasks_Overdue(t *testing.T) {
	t.Parallel()

	done := now.Add(-time.Hour)
	tasks := []Task{
		{ID: 1, Title: "past", DueDate: day(2024, time.March, 9)},
		{ID: 2, Title: "future", DueDate: day(2024, time.March, 11)},
		{ID: 3, Title: "today", DueDate: day(2024, time.March, 10)},
		{ID: 4, Title: "done", DueDate: day(2024, time.March, 1), Completed: true, CompletedAt: &done},
		{ID: 5, Title: "undated"},
	}

	got := FilterTasks(tasks, Criteria{Status: FilterOverdue}, now)
	if !equalIDs(ids(got), []int64{1}) {
		t.Fatalf("expected [1], got %v", ids(got))
	}
	for _, task := range got {
		if task.Completed || task.DueDate == nil {
			t.Fatalf("overdue view must not contain %+v", task)
		}
	}
}

func TestFilterTasks_StatusQueryCategory(t *testing.T) {
	t.Parallel()

	work, home := int64(1), int64(2)
	tasks := []Task{
		{ID: 1, Title: "Write Report", CategoryID: &work, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: 2, Title: "Groceries", Description: "milk and REPORT paper", CategoryID: &home, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 3, Title: "Call", Completed: true, CategoryID: &work, CreatedAt: now.Add(-time.Hour)},
		{ID: 4, Title: "Read", CreatedAt: now},
	}

	testCases := []struct {
		name     string
		criteria Criteria
		want     []int64
	}{
		{name: "all", criteria: Criteria{Status: FilterAll}, want: []int64{4, 2, 1, 3}},
		{name: "active", criteria: Criteria{Status: FilterActive}, want: []int64{4, 2, 1}},
		{name: "completed", criteria: Criteria{Status: FilterCompleted}, want: []int64{3}},
		{name: "query_title_and_description", criteria: Criteria{Query: "  report "}, want: []int64{2, 1}},
		{name: "category", criteria: Criteria{CategoryID: &work}, want: []int64{1, 3}},
		{name: "category_and_active", criteria: Criteria{Status: FilterActive, CategoryID: &work}, want: []int64{1}},
		{name: "no_match", criteria: Criteria{Query: "zzz"}, want: []int64{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := FilterTasks(tasks, tc.criteria, now)
			if !equalIDs(ids(got), tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, ids(got))
			}
		})
	}
}

func TestFilterTasks_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	tasks := []Task{
		{ID: 1, Priority: PriorityLow},
		{ID: 2, Priority: PriorityHigh},
	}

	_ = FilterTasks(tasks, Criteria{}, now)
	if tasks[0].ID != 1 || tasks[1].ID != 2 {
		t.Fatalf("input was reordered: %v", ids(tasks))
	}
}

func TestSortTasks_Order(t *testing.T) {
	t.Parallel()

	done := now
	tasks := []Task{
		{ID: 1, Priority: PriorityLow, CreatedAt: now},
		{ID: 2, Priority: PriorityHigh, CreatedAt: now.Add(-time.Hour)},
		{ID: 3, Priority: PriorityHigh, Completed: true, CompletedAt: &done},
		{ID: 4, Priority: PriorityMedium, DueDate: day(2024, time.March, 20)},
		{ID: 5, Priority: PriorityMedium, DueDate: day(2024, time.March, 12)},
		{ID: 6, Priority: PriorityMedium, CreatedAt: now},
		{ID: 7, Priority: PriorityMedium, CreatedAt: now.Add(time.Minute)},
	}

	SortTasks(tasks)

	want := []int64{2, 5, 4, 7, 6, 1, 3}
	if !equalIDs(ids(tasks), want) {
		t.Fatalf("expected %v, got %v", want, ids(tasks))
	}
}

func TestSortTasks_HighBeforeLow(t *testing.T) {
	t.Parallel()

	tasks := []Task{
		{ID: 1, Priority: PriorityLow, CreatedAt: now},
		{ID: 2, Priority: PriorityHigh, CreatedAt: now},
	}
	SortTasks(tasks)

	if tasks[0].ID != 2 {
		t.Fatalf("expected high priority first, got %v", ids(tasks))
	}
}

func TestSortTasks_StableForEqualKeys(t *testing.T) {
	t.Parallel()

	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = Task{ID: int64(i + 1), Priority: PriorityMedium, CreatedAt: now}
	}

	SortTasks(tasks)

	for i, task := range tasks {
		if task.ID != int64(i+1) {
			t.Fatalf("equal tasks were reordered: %v", ids(tasks))
		}
	}
}

func TestSortTasks_UnknownPriorityCountsAsMedium(t *testing.T) {
	t.Parallel()

	tasks := []Task{
		{ID: 1, Priority: PriorityLow},
		{ID: 2, Priority: "whatever"},
		{ID: 3, Priority: PriorityHigh},
	}
	SortTasks(tasks)

	if !equalIDs(ids(tasks), []int64{3, 2, 1}) {
		t.Fatalf("expected [3 2 1], got %v", ids(tasks))
	}
}

func TestCountByStatus(t *testing.T) {
	t.Parallel()

	done := now
	tasks := []Task{
		{ID: 1, DueDate: day(2024, time.March, 1)},
		{ID: 2},
		{ID: 3, Completed: true, CompletedAt: &done, DueDate: day(2024, time.March, 1)},
	}

	got := CountByStatus(tasks, now)
	want := FilterCounts{All: 3, Active: 2, Completed: 1, Overdue: 1}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestEmptyReason(t *testing.T) {
	t.Parallel()

	cid := int64(3)

	testCases := []struct {
		name     string
		criteria Criteria
		visible  int
		want     Empty
	}{
		{name: "not_empty", criteria: Criteria{Query: "x"}, visible: 2, want: EmptyNone},
		{name: "query_wins", criteria: Criteria{Query: "x", Status: FilterOverdue, CategoryID: &cid}, want: EmptyNoMatch},
		{name: "blank_query_ignored", criteria: Criteria{Query: "  "}, want: EmptyNoTasks},
		{name: "completed", criteria: Criteria{Status: FilterCompleted, CategoryID: &cid}, want: EmptyNoCompleted},
		{name: "overdue", criteria: Criteria{Status: FilterOverdue}, want: EmptyNoOverdue},
		{name: "category", criteria: Criteria{Status: FilterActive, CategoryID: &cid}, want: EmptyCategoryEmpty},
		{name: "nothing", criteria: Criteria{Status: FilterAll}, want: EmptyNoTasks},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := EmptyReason(tc.criteria, tc.visible); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestParseStatusFilter(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]StatusFilter{
		"":          FilterAll,
		"all":       FilterAll,
		" Active ":  FilterActive,
		"COMPLETED": FilterCompleted,
		"overdue":   FilterOverdue,
	} {
		got, ok := ParseStatusFilter(in)
		if !ok || got != want {
			t.Fatalf("ParseStatusFilter(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}

	if _, ok := ParseStatusFilter("archived"); ok {
		t.Fatalf("expected archived to be rejected")
	}
}
