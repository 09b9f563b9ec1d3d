package core

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"
)

var colorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

type Service struct {
	db  DB
	now func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(db DB, opts ...Option) *Service {
	s := &Service{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Categories

func (s *Service) CreateCategory(ctx context.Context, in NewCategory) (Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Category{}, ErrCategoryInvalidArgs
	}

	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = DefaultCategoryColor
	}
	if !colorRe.MatchString(color) {
		return Category{}, ErrCategoryInvalidArgs
	}

	existing, err := s.db.ListCategories(ctx)
	if err != nil {
		return Category{}, err
	}

	return s.db.CreateCategory(ctx, Category{
		Name:  name,
		Color: color,
		Order: len(existing) + 1,
	})
}

func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, ErrCategoryInvalidArgs
	}

	c, err := s.db.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}

	tasks, err := s.db.ListTasks(ctx)
	if err != nil {
		return Category{}, err
	}

	return WithCounts([]Category{c}, tasks)[0], nil
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.db.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	tasks, err := s.db.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	out := WithCounts(categories, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Service) PatchCategory(ctx context.Context, id int64, p CategoryPatch) (Category, error) {
	if id <= 0 || p.empty() {
		return Category{}, ErrCategoryInvalidArgs
	}

	cur, err := s.db.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return Category{}, ErrCategoryInvalidArgs
		}
		cur.Name = name
	}

	if p.Color != nil {
		color := strings.TrimSpace(*p.Color)
		if !colorRe.MatchString(color) {
			return Category{}, ErrCategoryInvalidArgs
		}
		cur.Color = color
	}

	if p.Order != nil {
		cur.Order = *p.Order
	}

	updated, err := s.db.UpdateCategory(ctx, cur)
	if err != nil {
		return Category{}, err
	}

	tasks, err := s.db.ListTasks(ctx)
	if err != nil {
		return Category{}, err
	}

	return WithCounts([]Category{updated}, tasks)[0], nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrCategoryInvalidArgs
	}
	return s.db.DeleteCategory(ctx, id)
}

// Tasks

func (s *Service) CreateTask(ctx context.Context, in NewTask) (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, ErrTaskInvalidArgs
	}

	priority := PriorityMedium
	if in.Priority != "" {
		p, ok := ParsePriority(string(in.Priority))
		if !ok {
			return Task{}, ErrTaskInvalidArgs
		}
		priority = p
	}

	var categoryID *int64
	if in.CategoryID != nil && *in.CategoryID != 0 {
		cid := *in.CategoryID
		if err := s.checkCategory(ctx, cid); err != nil {
			return Task{}, err
		}
		categoryID = &cid
	}

	var due *Date
	if in.DueDate != nil && !in.DueDate.IsZero() {
		d := *in.DueDate
		due = &d
	}

	now := s.now()
	order := now.UnixMilli()
	if in.Order != nil {
		order = *in.Order
	}

	return s.db.CreateTask(ctx, Task{
		CategoryID:  categoryID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		DueDate:     due,
		CreatedAt:   now,
		Order:       order,
	})
}

func (s *Service) GetTask(ctx context.Context, id int64) (Task, error) {
	if id <= 0 {
		return Task{}, ErrTaskInvalidArgs
	}
	return s.db.GetTask(ctx, id)
}

func (s *Service) ListTasks(ctx context.Context) ([]Task, error) {
	return s.db.ListTasks(ctx)
}

// FilterTasks reads the current collection and returns the view selected by c.
func (s *Service) FilterTasks(ctx context.Context, c Criteria) (TaskView, error) {
	status, ok := ParseStatusFilter(string(c.Status))
	if !ok {
		return TaskView{}, ErrTaskInvalidArgs
	}
	c.Status = status
	c.Query = strings.TrimSpace(c.Query)

	if c.CategoryID != nil && *c.CategoryID <= 0 {
		return TaskView{}, ErrTaskInvalidArgs
	}

	tasks, err := s.db.ListTasks(ctx)
	if err != nil {
		return TaskView{}, err
	}

	now := s.now()
	visible := FilterTasks(tasks, c, now)

	return TaskView{
		Tasks:    visible,
		Criteria: c,
		Counts:   CountByStatus(tasks, now),
		Empty:    EmptyReason(c, len(visible)),
	}, nil
}

func (s *Service) PatchTask(ctx context.Context, id int64, p TaskPatch) (Task, error) {
	if id <= 0 {
		return Task{}, ErrTaskInvalidArgs
	}
	if p.empty() {
		return Task{}, ErrTaskInvalidArgs
	}

	cur, err := s.db.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return Task{}, ErrTaskInvalidArgs
		}
		cur.Title = title
	}

	if p.Description != nil {
		cur.Description = strings.TrimSpace(*p.Description)
	}

	if p.Priority != nil {
		priority, ok := ParsePriority(string(*p.Priority))
		if !ok {
			return Task{}, ErrTaskInvalidArgs
		}
		cur.Priority = priority
	}

	if p.DueDate != nil {
		if p.DueDate.IsZero() {
			cur.DueDate = nil
		} else {
			d := *p.DueDate
			cur.DueDate = &d
		}
	}

	if p.Order != nil {
		cur.Order = *p.Order
	}

	if p.CategoryID != nil {
		if *p.CategoryID < 0 {
			return Task{}, ErrTaskInvalidArgs
		}

		if *p.CategoryID == 0 {
			// remove category
			cur.CategoryID = nil
		} else {
			cid := *p.CategoryID
			if err := s.checkCategory(ctx, cid); err != nil {
				return Task{}, err
			}
			cur.CategoryID = &cid
		}
	}

	// completed_at follows every explicit write of completed
	if p.Completed != nil {
		cur.Completed = *p.Completed
		if cur.Completed {
			at := s.now()
			cur.CompletedAt = &at
		} else {
			cur.CompletedAt = nil
		}
	}

	return s.db.UpdateTask(ctx, cur)
}

func (s *Service) ToggleComplete(ctx context.Context, id int64) (Task, error) {
	cur, err := s.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}

	completed := !cur.Completed
	return s.PatchTask(ctx, id, TaskPatch{Completed: &completed})
}

func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrTaskInvalidArgs
	}
	return s.db.DeleteTask(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	tasks, err := s.db.ListTasks(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(tasks, s.now()), nil
}

func (s *Service) checkCategory(ctx context.Context, id int64) error {
	if id < 0 {
		return ErrTaskInvalidArgs
	}
	_, err := s.db.GetCategory(ctx, id)
	return err
}

var _ Tasks = (*Service)(nil)
