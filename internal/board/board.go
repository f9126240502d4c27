// Package board keeps the standalone web client's view of the task list.
// Mutations are applied to the view first and confirmed or rolled back once
// the API answers, so a rejected change never leaves partial state behind.
package board

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/validator"
)

// API is the remote task service the board mirrors.
type API interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, title string) (*model.Task, error)
	Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Board is the displayed task list.
type Board struct {
	api    API
	logger *slog.Logger

	mu    sync.Mutex
	rows  map[int64]*Row
	order []int64
}

// New creates an empty Board backed by api.
func New(api API, logger *slog.Logger) *Board {
	return &Board{
		api:    api,
		logger: logger,
		rows:   make(map[int64]*Row),
	}
}

// List refreshes the board from the API and returns the visible tasks in
// display order. Rows with a mutation in flight keep their optimistic state.
// When the API fails the last displayed list is returned with the error.
func (b *Board) List(ctx context.Context) ([]model.Task, error) {
	tasks, err := b.api.List(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		return b.visible(), err
	}

	rows := make(map[int64]*Row, len(tasks))
	order := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		row, ok := b.rows[task.ID]
		switch {
		case !ok:
			row = &Row{Task: task}
		case row.State != Pending:
			row.Task = task
			row.Hidden = false
		}
		rows[task.ID] = row
		order = append(order, task.ID)
	}
	b.rows = rows
	b.order = order

	return b.visible(), nil
}

// Create adds a task once the API has assigned its id. Creates are not
// optimistic because the row has no identity until then.
func (b *Board) Create(ctx context.Context, title string) (*model.Task, error) {
	task, err := b.api.Create(ctx, title)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.rows[task.ID] = &Row{Task: *task, State: Committed}
	b.order = append([]int64{task.ID}, b.order...)
	return task, nil
}

// Update shows the patched task immediately and reverts the row if the API
// rejects the change.
func (b *Board) Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	patch, err := validator.NormalizePatch(patch)
	if err != nil {
		return nil, err
	}

	op, err := b.begin(id, func(r *Row) { patch.Apply(&r.Task) })
	if err != nil {
		return nil, err
	}
	if op == uuid.Nil {
		return b.updateUntracked(ctx, id, patch)
	}

	task, err := b.api.Update(ctx, id, patch)

	b.mu.Lock()
	defer b.mu.Unlock()

	row := b.rows[id]
	if err != nil {
		b.revert(ctx, row, op, id, err)
		return nil, err
	}
	// A refresh may have dropped the row while the request was in flight.
	if row == nil {
		return task, nil
	}
	if cerr := row.Commit(op, *task); cerr != nil {
		b.logger.WarnContext(ctx, "could not commit task update", slog.Int64("id", id), slog.Any("error", cerr))
	}
	return task, nil
}

// Delete hides the row immediately and restores it if the API call fails.
// It reports false when the API no longer had the task.
func (b *Board) Delete(ctx context.Context, id int64) (bool, error) {
	op, err := b.begin(id, func(r *Row) { r.Hidden = true })
	if err != nil {
		return false, err
	}
	if op == uuid.Nil {
		return b.api.Delete(ctx, id)
	}

	deleted, err := b.api.Delete(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.revert(ctx, b.rows[id], op, id, err)
		return false, err
	}

	b.remove(id)
	return deleted, nil
}

// Row returns a copy of the displayed row for id.
func (b *Board) Row(id int64) (Row, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.rows[id]
	if !ok {
		return Row{}, false
	}
	return *row, true
}

// begin starts a mutation on a displayed row. It returns uuid.Nil without an
// error when the row is not on the board.
func (b *Board) begin(id int64, change func(*Row)) (uuid.UUID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.rows[id]
	if !ok {
		return uuid.Nil, nil
	}
	return row.Begin(change)
}

// updateUntracked sends an update for a task the board has not displayed yet
// and adds the result to the board.
func (b *Board) updateUntracked(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	task, err := b.api.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.rows[id]; !ok {
		b.rows[id] = &Row{Task: *task, State: Committed}
		b.order = append(b.order, id)
	}
	return task, nil
}

// revert must be called with mu held.
func (b *Board) revert(ctx context.Context, row *Row, op uuid.UUID, id int64, cause error) {
	if row == nil {
		return
	}
	if err := row.Revert(op); err != nil {
		b.logger.WarnContext(ctx, "could not revert task row", slog.Int64("id", id), slog.Any("error", err))
		return
	}
	b.logger.InfoContext(ctx, "task change reverted", slog.Int64("id", id), slog.Any("cause", cause))
}

// remove must be called with mu held.
func (b *Board) remove(id int64) {
	delete(b.rows, id)
	for i, rid := range b.order {
		if rid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// visible must be called with mu held.
func (b *Board) visible() []model.Task {
	tasks := make([]model.Task, 0, len(b.order))
	for _, id := range b.order {
		if row := b.rows[id]; row != nil && !row.Hidden {
			tasks = append(tasks, row.Task)
		}
	}
	return tasks
}
