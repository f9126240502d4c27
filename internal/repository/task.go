package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/validator"
)

var tracer = otel.Tracer("github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/repository")

// TaskStore provides an in-memory storage for tasks. All state is lost when
// the process exits.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  []*model.Task
	nextID int64
	now    func() time.Time
}

// Option configures a TaskStore.
type Option func(*TaskStore)

// WithClock sets the time source used for createdAt and updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *TaskStore) {
		s.now = now
	}
}

// SeedTask is a task loaded into the store at construction.
type SeedTask struct {
	ID        int64
	Title     string
	Completed bool
	CreatedAt time.Time
}

// WithSeed preloads tasks. The id counter starts above the largest seeded id.
func WithSeed(seed ...SeedTask) Option {
	return func(s *TaskStore) {
		for _, st := range seed {
			s.tasks = append(s.tasks, &model.Task{
				ID:        st.ID,
				Title:     st.Title,
				Completed: st.Completed,
				CreatedAt: st.CreatedAt,
			})
			s.nextID = max(s.nextID, st.ID+1)
		}
	}
}

// WithSampleTasks preloads three sample tasks with ids 1 to 3, oldest first.
func WithSampleTasks() Option {
	return func(s *TaskStore) {
		base := s.now()
		WithSeed(
			SeedTask{ID: 1, Title: "Learn Go basics", Completed: true, CreatedAt: base.Add(-3 * time.Hour)},
			SeedTask{ID: 2, Title: "Build a REST API", CreatedAt: base.Add(-2 * time.Hour)},
			SeedTask{ID: 3, Title: "Deploy the application", CreatedAt: base.Add(-1 * time.Hour)},
		)(s)
	}
}

// NewTaskStore creates a new TaskStore. Options are applied in order, so
// WithClock must come before WithSampleTasks to affect the sample timestamps.
func NewTaskStore(opts ...Option) *TaskStore {
	s := &TaskStore{
		nextID: 1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all tasks, newest first.
func (s *TaskStore) List(ctx context.Context) ([]model.Task, error) {
	_, span := tracer.Start(ctx, "TaskStore.List")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]model.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, clone(task))
	}
	slices.SortStableFunc(tasks, newestFirst)

	span.SetAttributes(attribute.Int("task.count", len(tasks)))
	return tasks, nil
}

// Get retrieves a task by its ID.
func (s *TaskStore) Get(ctx context.Context, id int64) (*model.Task, error) {
	_, span := tracer.Start(ctx, "TaskStore.Get",
		trace.WithAttributes(attribute.Int64("task.id", id)),
	)
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, task := s.find(id)
	if task == nil {
		span.SetAttributes(attribute.Bool("task.found", false))
		return nil, &model.NotFoundError{ID: id}
	}

	span.SetAttributes(attribute.Bool("task.found", true))
	out := clone(task)
	return &out, nil
}

// Create validates title and appends a new task.
func (s *TaskStore) Create(ctx context.Context, title string) (*model.Task, error) {
	_, span := tracer.Start(ctx, "TaskStore.Create")
	defer span.End()

	title, err := validator.Title(title)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := &model.Task{
		ID:        s.nextID,
		Title:     title,
		Completed: false,
		CreatedAt: s.now(),
	}
	s.nextID++
	s.tasks = append(s.tasks, task)

	span.SetAttributes(attribute.Int64("task.id", task.ID))
	out := clone(task)
	return &out, nil
}

// Update merges patch into an existing task and stamps updatedAt.
func (s *TaskStore) Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	_, span := tracer.Start(ctx, "TaskStore.Update",
		trace.WithAttributes(attribute.Int64("task.id", id)),
	)
	defer span.End()

	patch, err := validator.NormalizePatch(patch)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, task := s.find(id)
	if task == nil {
		span.SetAttributes(attribute.Bool("task.found", false))
		return nil, &model.NotFoundError{ID: id}
	}

	patch.Apply(task)
	now := s.now()
	task.UpdatedAt = &now

	span.SetAttributes(attribute.Bool("task.found", true))
	out := clone(task)
	return &out, nil
}

// Delete removes a task and reports whether it existed.
func (s *TaskStore) Delete(ctx context.Context, id int64) bool {
	_, span := tracer.Start(ctx, "TaskStore.Delete",
		trace.WithAttributes(attribute.Int64("task.id", id)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	i, task := s.find(id)
	if task == nil {
		span.SetAttributes(attribute.Bool("task.found", false))
		return false
	}

	s.tasks = slices.Delete(s.tasks, i, i+1)
	span.SetAttributes(attribute.Bool("task.found", true))
	return true
}

// Count returns the current number of tasks.
func (s *TaskStore) Count() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.tasks))
}

// find must be called with mu held.
func (s *TaskStore) find(id int64) (int, *model.Task) {
	i := slices.IndexFunc(s.tasks, func(t *model.Task) bool { return t.ID == id })
	if i < 0 {
		return -1, nil
	}
	return i, s.tasks[i]
}

func clone(t *model.Task) model.Task {
	out := *t
	if t.UpdatedAt != nil {
		updated := *t.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}

func newestFirst(a, b model.Task) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	}
	return 0
}
