package handler

import (
	"context"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/repository"
)

// Tasks is the set of task operations the HTTP handlers depend on. The
// in-memory store satisfies it through StoreTasks; the standalone web client
// satisfies it with its optimistic board.
type Tasks interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, title string) (*model.Task, error)
	Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error)
	// Delete reports false when no task had id.
	Delete(ctx context.Context, id int64) (bool, error)
}

// TaskService adds single-task lookup for the JSON API.
type TaskService interface {
	Tasks
	Get(ctx context.Context, id int64) (*model.Task, error)
}

type storeTasks struct {
	*repository.TaskStore
}

// StoreTasks exposes a TaskStore as a TaskService.
func StoreTasks(store *repository.TaskStore) TaskService {
	return storeTasks{TaskStore: store}
}

// Delete never fails on the in-memory store.
func (s storeTasks) Delete(ctx context.Context, id int64) (bool, error) {
	return s.TaskStore.Delete(ctx, id), nil
}
