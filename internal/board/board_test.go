package board

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/repository"
)

var errUnavailable = errors.New("api unavailable")

// fakeAPI serves from an in-memory store and can be told to fail or to hold
// a mutation until released.
type fakeAPI struct {
	store *repository.TaskStore

	mu      sync.Mutex
	fail    error
	hold    chan struct{}
	entered chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{store: repository.NewTaskStore(repository.WithSampleTasks())}
}

func (f *fakeAPI) failWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *fakeAPI) holdNext() (entered, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = make(chan struct{})
	f.entered = make(chan struct{})
	return f.entered, f.hold
}

func (f *fakeAPI) gate() error {
	f.mu.Lock()
	hold, entered, fail := f.hold, f.entered, f.fail
	f.hold, f.entered = nil, nil
	f.mu.Unlock()

	if hold != nil {
		close(entered)
		<-hold
	}
	return fail
}

func (f *fakeAPI) List(ctx context.Context) ([]model.Task, error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return f.store.List(ctx)
}

func (f *fakeAPI) Create(ctx context.Context, title string) (*model.Task, error) {
	if err := f.gate(); err != nil {
		return nil, err
	}
	return f.store.Create(ctx, title)
}

func (f *fakeAPI) Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	if err := f.gate(); err != nil {
		return nil, err
	}
	return f.store.Update(ctx, id, patch)
}

func (f *fakeAPI) Delete(ctx context.Context, id int64) (bool, error) {
	if err := f.gate(); err != nil {
		return false, err
	}
	return f.store.Delete(ctx, id), nil
}

func newBoard(t *testing.T) (*Board, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	b := New(api, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := b.List(context.Background())
	require.NoError(t, err)
	return b, api
}

func ptr[T any](v T) *T { return &v }

func titles(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestBoard_ListMirrorsAPI(t *testing.T) {
	b, _ := newBoard(t)

	tasks, err := b.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Deploy the application", "Build a REST API", "Learn Go basics"}, titles(tasks))

	row, ok := b.Row(3)
	require.True(t, ok)
	assert.Equal(t, Idle, row.State)
}

func TestBoard_CreateAddsRowFirst(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)

	created, err := b.Create(ctx, "Write tests")
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID)

	tasks, err := b.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), tasks[0].ID)
}

func TestBoard_UpdateCommits(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)

	task, err := b.Update(ctx, 2, model.TaskPatch{Completed: ptr(true)})
	require.NoError(t, err)
	assert.True(t, task.Completed)

	row, ok := b.Row(2)
	require.True(t, ok)
	assert.Equal(t, Committed, row.State)
	assert.True(t, row.Task.Completed)
	assert.NotNil(t, row.Task.UpdatedAt, "display takes the server's record")
}

func TestBoard_FailedUpdateRevertsDisplay(t *testing.T) {
	ctx := context.Background()
	b, api := newBoard(t)
	api.failWith(errUnavailable)

	_, err := b.Update(ctx, 2, model.TaskPatch{Title: ptr("Renamed"), Completed: ptr(true)})
	require.ErrorIs(t, err, errUnavailable)

	row, ok := b.Row(2)
	require.True(t, ok)
	assert.Equal(t, Reverted, row.State)
	assert.Equal(t, "Build a REST API", row.Task.Title)
	assert.False(t, row.Task.Completed)
}

func TestBoard_RejectedUpdateRevertsDisplay(t *testing.T) {
	ctx := context.Background()
	b, api := newBoard(t)
	api.failWith(&model.NotFoundError{ID: 2})

	_, err := b.Update(ctx, 2, model.TaskPatch{Completed: ptr(true)})
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)

	row, _ := b.Row(2)
	assert.False(t, row.Task.Completed)
}

func TestBoard_InvalidPatchNeverTouchesRow(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)

	_, err := b.Update(ctx, 2, model.TaskPatch{Title: ptr("  ")})
	var valErr *model.ValidationError
	require.ErrorAs(t, err, &valErr)

	row, _ := b.Row(2)
	assert.Equal(t, Idle, row.State)
}

func TestBoard_PendingUpdateIsVisibleAndBlocksSecondChange(t *testing.T) {
	ctx := context.Background()
	b, api := newBoard(t)
	entered, release := api.holdNext()

	done := make(chan error, 1)
	go func() {
		_, err := b.Update(ctx, 1, model.TaskPatch{Completed: ptr(false)})
		done <- err
	}()
	<-entered

	row, _ := b.Row(1)
	assert.Equal(t, Pending, row.State)
	assert.False(t, row.Task.Completed, "optimistic value is displayed while pending")

	tasks, err := b.List(ctx)
	require.NoError(t, err)
	for _, task := range tasks {
		if task.ID == 1 {
			assert.False(t, task.Completed, "refresh keeps the pending display")
		}
	}

	_, err = b.Update(ctx, 1, model.TaskPatch{Title: ptr("other")})
	assert.ErrorIs(t, err, ErrRowBusy)

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("update did not finish")
	}

	row, _ = b.Row(1)
	assert.Equal(t, Committed, row.State)
}

func TestBoard_DeleteHidesThenRemoves(t *testing.T) {
	ctx := context.Background()
	b, api := newBoard(t)
	entered, release := api.holdNext()

	done := make(chan bool, 1)
	go func() {
		deleted, _ := b.Delete(ctx, 2)
		done <- deleted
	}()
	<-entered

	b.mu.Lock()
	visible := b.visible()
	b.mu.Unlock()
	assert.Len(t, visible, 2, "pending delete hides the row")

	close(release)
	assert.True(t, <-done)

	_, ok := b.Row(2)
	assert.False(t, ok)
}

func TestBoard_FailedDeleteRestoresRow(t *testing.T) {
	ctx := context.Background()
	b, api := newBoard(t)
	api.failWith(errUnavailable)

	_, err := b.Delete(ctx, 2)
	require.ErrorIs(t, err, errUnavailable)

	row, ok := b.Row(2)
	require.True(t, ok)
	assert.Equal(t, Reverted, row.State)
	assert.False(t, row.Hidden)
}

func TestBoard_DeleteOfTaskGoneOnServer(t *testing.T) {
	ctx := context.Background()
	b, api := newBoard(t)
	require.True(t, api.store.Delete(ctx, 2))

	deleted, err := b.Delete(ctx, 2)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, ok := b.Row(2)
	assert.False(t, ok)
}

func TestBoard_ListFailureKeepsLastDisplay(t *testing.T) {
	ctx := context.Background()
	b, api := newBoard(t)
	api.failWith(errUnavailable)

	tasks, err := b.List(ctx)
	require.ErrorIs(t, err, errUnavailable)
	assert.Len(t, tasks, 3)
}

func TestBoard_UpdateOfUndisplayedTask(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	b := New(api, slog.New(slog.NewTextHandler(io.Discard, nil)))

	task, err := b.Update(ctx, 3, model.TaskPatch{Completed: ptr(true)})
	require.NoError(t, err)
	assert.True(t, task.Completed)

	row, ok := b.Row(3)
	require.True(t, ok)
	assert.Equal(t, Committed, row.State)
}

type requestKey struct{}

// contextRecorder keeps the requestKey value of the context each record was
// logged with.
type contextRecorder struct {
	mu   sync.Mutex
	seen []any
}

func (h *contextRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (h *contextRecorder) Handle(ctx context.Context, _ slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, ctx.Value(requestKey{}))
	return nil
}

func (h *contextRecorder) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *contextRecorder) WithGroup(string) slog.Handler      { return h }

func TestBoard_RevertLogsCarryRequestContext(t *testing.T) {
	api := newFakeAPI()
	rec := &contextRecorder{}
	b := New(api, slog.New(rec))
	_, err := b.List(context.Background())
	require.NoError(t, err)
	api.failWith(errUnavailable)

	ctx := context.WithValue(context.Background(), requestKey{}, "req-1")
	_, err = b.Update(ctx, 2, model.TaskPatch{Completed: ptr(true)})
	require.Error(t, err)
	_, err = b.Delete(ctx, 2)
	require.Error(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.seen, 2)
	for _, v := range rec.seen {
		assert.Equal(t, "req-1", v)
	}
}
