package records

import (
	"time"

	"taskflow/tasks/core"
)

const (
	taskTable     = "task_c"
	categoryTable = "category_c"
)

// Remote column names.
const (
	fieldID = "Id"

	fieldTitle       = "title_c"
	fieldDescription = "description_c"
	fieldCategoryID  = "category_id_c"
	fieldPriority    = "priority_c"
	fieldDueDate     = "due_date_c"
	fieldCompleted   = "completed_c"
	fieldCompletedAt = "completed_at_c"
	fieldCreatedAt   = "created_at_c"
	fieldOrder       = "order_c"

	fieldName  = "name_c"
	fieldColor = "color_c"
)

var (
	taskFields = fields(fieldID, fieldTitle, fieldDescription, fieldCategoryID, fieldPriority,
		fieldDueDate, fieldCompleted, fieldCompletedAt, fieldCreatedAt, fieldOrder)
	categoryFields = fields(fieldID, fieldName, fieldColor, fieldOrder)
)

type taskRecord struct {
	ID          int64      `json:"Id,omitempty"`
	Title       string     `json:"title_c"`
	Description string     `json:"description_c"`
	CategoryID  *int64     `json:"category_id_c"`
	Priority    string     `json:"priority_c"`
	DueDate     *core.Date `json:"due_date_c"`
	Completed   bool       `json:"completed_c"`
	CompletedAt *time.Time `json:"completed_at_c"`
	CreatedAt   time.Time  `json:"created_at_c"`
	Order       int64      `json:"order_c"`
}

func toTaskRecord(t core.Task) taskRecord {
	return taskRecord{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CategoryID:  t.CategoryID,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		Order:       t.Order,
	}
}

func (r taskRecord) toCore() core.Task {
	t := core.Task{
		ID:          r.ID,
		CategoryID:  r.CategoryID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    core.Priority(r.Priority),
		DueDate:     r.DueDate,
		Completed:   r.Completed,
		CompletedAt: r.CompletedAt,
		CreatedAt:   r.CreatedAt,
		Order:       r.Order,
	}
	if t.Priority == "" {
		t.Priority = core.PriorityMedium
	}
	if t.DueDate != nil && t.DueDate.IsZero() {
		t.DueDate = nil
	}
	if t.CategoryID != nil && *t.CategoryID == 0 {
		t.CategoryID = nil
	}
	return t
}

type categoryRecord struct {
	ID    int64  `json:"Id,omitempty"`
	Name  string `json:"name_c"`
	Color string `json:"color_c"`
	Order int    `json:"order_c"`
}

func toCategoryRecord(c core.Category) categoryRecord {
	return categoryRecord{ID: c.ID, Name: c.Name, Color: c.Color, Order: c.Order}
}

func (r categoryRecord) toCore() core.Category {
	c := core.Category{ID: r.ID, Name: r.Name, Color: r.Color, Order: r.Order}
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	return c
}
