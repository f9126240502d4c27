package board

import (
	"errors"

	"github.com/google/uuid"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
)

// RowState is where a displayed row is in its mutation lifecycle.
type RowState int

const (
	Idle RowState = iota
	Pending
	Committed
	Reverted
)

func (s RowState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case Reverted:
		return "reverted"
	default:
		return "unknown"
	}
}

var (
	// ErrRowBusy is returned when a row already has a mutation in flight.
	ErrRowBusy error = &model.ConflictError{Message: "task has a change in progress, try again once it finishes"}
	// ErrStaleOperation is returned when an operation id does not match the
	// mutation the row is waiting on.
	ErrStaleOperation = errors.New("operation is not pending on this row")
)

// Row is one displayed task and its optimistic mutation state.
type Row struct {
	Task   model.Task
	State  RowState
	Hidden bool

	op    uuid.UUID
	prior model.Task
}

// Begin snapshots the displayed task, applies change to the display and
// moves the row to Pending. The returned id identifies the mutation.
func (r *Row) Begin(change func(*Row)) (uuid.UUID, error) {
	if r.State == Pending {
		return uuid.Nil, ErrRowBusy
	}

	r.prior = r.Task
	r.op = uuid.New()
	r.State = Pending
	change(r)
	return r.op, nil
}

// Commit replaces the display with the server's record.
func (r *Row) Commit(op uuid.UUID, task model.Task) error {
	if r.State != Pending || r.op != op {
		return ErrStaleOperation
	}

	r.Task = task
	r.State = Committed
	r.op = uuid.Nil
	return nil
}

// Revert restores the display captured by Begin.
func (r *Row) Revert(op uuid.UUID) error {
	if r.State != Pending || r.op != op {
		return ErrStaleOperation
	}

	r.Task = r.prior
	r.Hidden = false
	r.State = Reverted
	r.op = uuid.Nil
	return nil
}
