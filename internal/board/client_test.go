package board_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/board"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/client"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/handler"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/repository"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/server"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/telemetry"
)

func TestBoard_AgainstRunningAPI(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := repository.NewTaskStore(repository.WithSampleTasks())
	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter("test"), store.Count)
	require.NoError(t, err)

	srv := httptest.NewServer(server.NewRouter(server.Options{
		Logger:  logger,
		Metrics: metrics,
		API:     handler.StoreTasks(store),
	}))
	defer srv.Close()

	api, err := client.New(srv.URL, 5*time.Second)
	require.NoError(t, err)
	b := board.New(api, logger)

	tasks, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	completed := true
	_, err = b.Update(ctx, 2, model.TaskPatch{Completed: &completed})
	require.NoError(t, err)
	row, _ := b.Row(2)
	assert.Equal(t, board.Committed, row.State)

	// Removed behind the board's back: the API answers 404 and the row reverts.
	require.True(t, store.Delete(ctx, 3))
	title := "Ship it"
	_, err = b.Update(ctx, 3, model.TaskPatch{Title: &title})
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
	row, _ = b.Row(3)
	assert.Equal(t, board.Reverted, row.State)
	assert.Equal(t, "Deploy the application", row.Task.Title)

	deleted, err := b.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	tasks, err = b.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(2), tasks[0].ID)
	assert.True(t, tasks[0].Completed)
}

func TestBoard_APIDown(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	api, err := client.New(url, time.Second)
	require.NoError(t, err)
	b := board.New(api, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tasks, err := b.List(context.Background())
	assert.Error(t, err)
	assert.Empty(t, tasks)
}
