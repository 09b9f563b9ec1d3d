package mongo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskflow/tasks/core"
)

const (
	categoriesCollection = "categories"
	tasksCollection      = "tasks"
	countersCollection   = "counters"
)

// DB stores categories and tasks as documents keyed by int64 ids taken from
// a counters collection, so ids stay numeric across backends.
type DB struct {
	log    *slog.Logger
	client *mongo.Client

	categories *mongo.Collection
	tasks      *mongo.Collection
	counters   *mongo.Collection
}

func New(ctx context.Context, log *slog.Logger, uri, database string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Error("connection problem", "error", err)
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Error("ping problem", "error", err)
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return newDB(log, client, database), nil
}

func newDB(log *slog.Logger, client *mongo.Client, database string) *DB {
	d := client.Database(database)
	return &DB{
		log:        log,
		client:     client,
		categories: d.Collection(categoriesCollection),
		tasks:      d.Collection(tasksCollection),
		counters:   d.Collection(countersCollection),
	}
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// Migrate creates the indexes the queries below rely on.
func (db *DB) Migrate(ctx context.Context) error {
	db.log.Debug("creating mongo indexes")

	_, err := db.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
	})
	if err != nil {
		return core.BackendErr("create task indexes", err)
	}

	_, err = db.categories.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sort_order", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return core.BackendErr("create category indexes", err)
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.client.Ping(ctx, nil); err != nil {
		return core.BackendErr("ping", err)
	}
	return nil
}

type categoryDoc struct {
	ID    int64  `bson:"_id"`
	Name  string `bson:"name"`
	Color string `bson:"color"`
	Order int    `bson:"sort_order"`
}

func (d categoryDoc) toCore() core.Category {
	return core.Category{ID: d.ID, Name: d.Name, Color: d.Color, Order: d.Order}
}

type taskDoc struct {
	ID          int64      `bson:"_id"`
	CategoryID  *int64     `bson:"category_id"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Priority    string     `bson:"priority"`
	DueDate     string     `bson:"due_date,omitempty"`
	Completed   bool       `bson:"completed"`
	CompletedAt *time.Time `bson:"completed_at"`
	CreatedAt   time.Time  `bson:"created_at"`
	Order       int64      `bson:"sort_order"`
}

func newTaskDoc(t core.Task) taskDoc {
	d := taskDoc{
		ID:          t.ID,
		CategoryID:  t.CategoryID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		Order:       t.Order,
	}
	if t.DueDate != nil {
		d.DueDate = t.DueDate.String()
	}
	return d
}

func (d taskDoc) toCore() (core.Task, error) {
	t := core.Task{
		ID:          d.ID,
		CategoryID:  d.CategoryID,
		Title:       d.Title,
		Description: d.Description,
		Priority:    core.Priority(d.Priority),
		Completed:   d.Completed,
		CompletedAt: d.CompletedAt,
		CreatedAt:   d.CreatedAt,
		Order:       d.Order,
	}
	if d.DueDate != "" {
		due, err := core.ParseDate(d.DueDate)
		if err != nil {
			return core.Task{}, core.BackendErr("decode due date", err)
		}
		t.DueDate = &due
	}
	return t, nil
}

// nextID atomically increments the named sequence.
func (db *DB) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}

	err := db.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, core.BackendErr("next "+name+" id", err)
	}
	return counter.Seq, nil
}

// Categories

func (db *DB) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.Name == "" {
		return core.Category{}, core.ErrCategoryInvalidArgs
	}

	id, err := db.nextID(ctx, categoriesCollection)
	if err != nil {
		return core.Category{}, err
	}

	doc := categoryDoc{ID: id, Name: c.Name, Color: c.Color, Order: c.Order}
	if _, err := db.categories.InsertOne(ctx, doc); err != nil {
		return core.Category{}, core.BackendErr("insert category", err)
	}
	return doc.toCore(), nil
}

func (db *DB) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var doc categoryDoc
	if err := db.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.Category{}, core.ErrCategoryNotFound
		}
		return core.Category{}, core.BackendErr("get category", err)
	}
	return doc.toCore(), nil
}

func (db *DB) ListCategories(ctx context.Context) ([]core.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := db.categories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, core.BackendErr("list categories", err)
	}
	defer cursor.Close(ctx)

	var docs []categoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.BackendErr("decode categories", err)
	}

	out := make([]core.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (db *DB) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID <= 0 || c.Name == "" {
		return core.Category{}, core.ErrCategoryInvalidArgs
	}

	var doc categoryDoc
	err := db.categories.FindOneAndUpdate(ctx,
		bson.M{"_id": c.ID},
		bson.M{"$set": bson.M{"name": c.Name, "color": c.Color, "sort_order": c.Order}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.Category{}, core.ErrCategoryNotFound
		}
		return core.Category{}, core.BackendErr("update category", err)
	}
	return doc.toCore(), nil
}

// DeleteCategory clears the category from every task that referenced it and
// only then removes it, so a failed call never leaves a dangling category_id.
func (db *DB) DeleteCategory(ctx context.Context, id int64) error {
	if err := db.checkCategory(ctx, &id); err != nil {
		return err
	}

	_, err := db.tasks.UpdateMany(ctx,
		bson.M{"category_id": id},
		bson.M{"$set": bson.M{"category_id": nil}},
	)
	if err != nil {
		return core.BackendErr("clear task categories", err)
	}

	res, err := db.categories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return core.BackendErr("delete category", err)
	}
	if res.DeletedCount == 0 {
		return core.ErrCategoryNotFound
	}
	return nil
}

// Tasks

func (db *DB) checkCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	n, err := db.categories.CountDocuments(ctx, bson.M{"_id": *id})
	if err != nil {
		return core.BackendErr("check category", err)
	}
	if n == 0 {
		return core.ErrCategoryNotFound
	}
	return nil
}

func (db *DB) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	if t.Title == "" {
		return core.Task{}, core.ErrTaskInvalidArgs
	}
	if err := db.checkCategory(ctx, t.CategoryID); err != nil {
		return core.Task{}, err
	}

	id, err := db.nextID(ctx, tasksCollection)
	if err != nil {
		return core.Task{}, err
	}

	t.ID = id
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	// mongo keeps milliseconds
	t.CreatedAt = t.CreatedAt.Truncate(time.Millisecond)

	doc := newTaskDoc(t)
	if _, err := db.tasks.InsertOne(ctx, doc); err != nil {
		return core.Task{}, core.BackendErr("insert task", err)
	}
	return doc.toCore()
}

func (db *DB) GetTask(ctx context.Context, id int64) (core.Task, error) {
	var doc taskDoc
	if err := db.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.Task{}, core.ErrTaskNotFound
		}
		return core.Task{}, core.BackendErr("get task", err)
	}
	return doc.toCore()
}

func (db *DB) ListTasks(ctx context.Context) ([]core.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := db.tasks.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, core.BackendErr("list tasks", err)
	}
	defer cursor.Close(ctx)

	var docs []taskDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.BackendErr("decode tasks", err)
	}

	out := make([]core.Task, 0, len(docs))
	for _, d := range docs {
		t, err := d.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (db *DB) UpdateTask(ctx context.Context, t core.Task) (core.Task, error) {
	if t.ID <= 0 || t.Title == "" {
		return core.Task{}, core.ErrTaskInvalidArgs
	}
	if err := db.checkCategory(ctx, t.CategoryID); err != nil {
		return core.Task{}, err
	}

	set := bson.M{
		"category_id":  t.CategoryID,
		"title":        t.Title,
		"description":  t.Description,
		"priority":     string(t.Priority),
		"completed":    t.Completed,
		"completed_at": t.CompletedAt,
		"sort_order":   t.Order,
	}
	update := bson.M{"$set": set}
	if t.DueDate != nil {
		set["due_date"] = t.DueDate.String()
	} else {
		update["$unset"] = bson.M{"due_date": ""}
	}

	var doc taskDoc
	err := db.tasks.FindOneAndUpdate(ctx,
		bson.M{"_id": t.ID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.Task{}, core.ErrTaskNotFound
		}
		return core.Task{}, core.BackendErr("update task", err)
	}
	return doc.toCore()
}

func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	res, err := db.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return core.BackendErr("delete task", err)
	}
	if res.DeletedCount == 0 {
		return core.ErrTaskNotFound
	}
	return nil
}

var _ core.DB = (*DB)(nil)
