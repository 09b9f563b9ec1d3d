package core

import "context"

type Pinger interface {
	Ping(ctx context.Context) error
}

// DB is the record storage behind the service. Implementations own id
// assignment and must apply every call atomically: on error nothing changed.
type DB interface {
	Pinger

	// categories
	CreateCategory(ctx context.Context, c Category) (Category, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, c Category) (Category, error)
	// DeleteCategory removes the category and clears category_id on every
	// task that referenced it.
	DeleteCategory(ctx context.Context, id int64) error

	// tasks
	CreateTask(ctx context.Context, t Task) (Task, error)
	GetTask(ctx context.Context, id int64) (Task, error)
	ListTasks(ctx context.Context) ([]Task, error)
	UpdateTask(ctx context.Context, t Task) (Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// Tasks is what the presentation layer consumes.
type Tasks interface {
	Pinger

	CreateCategory(ctx context.Context, in NewCategory) (Category, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	PatchCategory(ctx context.Context, id int64, p CategoryPatch) (Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateTask(ctx context.Context, in NewTask) (Task, error)
	GetTask(ctx context.Context, id int64) (Task, error)
	ListTasks(ctx context.Context) ([]Task, error)
	FilterTasks(ctx context.Context, c Criteria) (TaskView, error)
	PatchTask(ctx context.Context, id int64, p TaskPatch) (Task, error)
	ToggleComplete(ctx context.Context, id int64) (Task, error)
	DeleteTask(ctx context.Context, id int64) error

	Stats(ctx context.Context) (Stats, error)
}
