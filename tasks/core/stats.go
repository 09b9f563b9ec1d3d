package core

import "time"

type Stats struct {
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	ActiveTasks    int `json:"active_tasks"`
	OverdueTasks   int `json:"overdue_tasks"`
	CompletionRate int `json:"completion_rate"` // percent, 0..100
	TodayCompleted int `json:"today_completed"`
}

// ComputeStats aggregates tasks as seen at now. "Today" is the calendar day
// of now in now's location.
func ComputeStats(tasks []Task, now time.Time) Stats {
	today := DateOf(now)

	s := Stats{TotalTasks: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.CompletedTasks++
		}
		if t.Overdue(now) {
			s.OverdueTasks++
		}
		if t.CompletedAt != nil && DateOf(t.CompletedAt.In(now.Location())) == today {
			s.TodayCompleted++
		}
	}
	s.ActiveTasks = s.TotalTasks - s.CompletedTasks
	s.CompletionRate = percent(s.CompletedTasks, s.TotalTasks)

	return s
}

// percent rounds part/total*100 to the nearest integer, halves rounding up.
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*part + total) / (2 * total)
}
