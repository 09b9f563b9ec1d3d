package core

// WithCounts returns copies of categories with TaskCount set to the number of
// tasks referencing each one.
func WithCounts(categories []Category, tasks []Task) []Category {
	counts := make(map[int64]int, len(categories))
	for _, t := range tasks {
		if t.CategoryID != nil {
			counts[*t.CategoryID]++
		}
	}

	out := make([]Category, len(categories))
	for i, c := range categories {
		c.TaskCount = counts[c.ID]
		out[i] = c
	}
	return out
}
