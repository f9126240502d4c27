package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/board"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/repository"
)

func newPageRouter(tasks Tasks) http.Handler {
	r := chi.NewRouter()
	NewPageHandler(tasks, discardLogger(), "Tasks").Routes(r)
	return r
}

func postForm(h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getPage(h http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestPageHandler_Index(t *testing.T) {
	pages := newPageRouter(StoreTasks(repository.NewTaskStore(repository.WithSampleTasks())))

	rec := getPage(pages)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "3 task(s)")
	newest := strings.Index(body, "Deploy the application")
	oldest := strings.Index(body, "Learn Go basics")
	require.NotEqual(t, -1, newest)
	require.NotEqual(t, -1, oldest)
	assert.Less(t, newest, oldest, "newest task should render first")
}

func TestPageHandler_IndexEscapesTitles(t *testing.T) {
	store := repository.NewTaskStore()
	_, err := store.Create(context.Background(), "<script>alert(1)</script>")
	require.NoError(t, err)

	body := getPage(newPageRouter(StoreTasks(store))).Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestPageHandler_CreateToggleRenameDelete(t *testing.T) {
	ctx := context.Background()
	store := repository.NewTaskStore(repository.WithSampleTasks())
	pages := newPageRouter(StoreTasks(store))

	rec := postForm(pages, "/ui/tasks", url.Values{"title": {"Write tests"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = postForm(pages, "/ui/tasks/4/toggle", url.Values{"completed": {"true"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = postForm(pages, "/ui/tasks/4/rename", url.Values{"title": {"Write more tests"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	task, err := store.Get(ctx, 4)
	require.NoError(t, err)
	assert.True(t, task.Completed)
	assert.Equal(t, "Write more tests", task.Title)

	rec = postForm(pages, "/ui/tasks/2/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, int64(3), store.Count())
}

func TestPageHandler_Failures(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		form     url.Values
		wantCode int
		wantText string
	}{
		{name: "blank title", target: "/ui/tasks", form: url.Values{"title": {"   "}}, wantCode: http.StatusBadRequest, wantText: "title is required"},
		{name: "bad completed value", target: "/ui/tasks/1/toggle", form: url.Values{"completed": {"maybe"}}, wantCode: http.StatusBadRequest, wantText: "completed must be true or false"},
		{name: "unknown task", target: "/ui/tasks/99/toggle", form: url.Values{"completed": {"true"}}, wantCode: http.StatusNotFound, wantText: "task 99 not found"},
		{name: "delete unknown task", target: "/ui/tasks/99/delete", wantCode: http.StatusNotFound, wantText: "task 99 not found"},
		{name: "malformed id", target: "/ui/tasks/x/delete", wantCode: http.StatusBadRequest, wantText: "id must be a positive integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewTaskStore(repository.WithSampleTasks())
			pages := newPageRouter(StoreTasks(store))

			rec := postForm(pages, tt.target, tt.form)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantText)
			assert.Contains(t, rec.Body.String(), "3 task(s)", "the list still renders")
			assert.Equal(t, int64(3), store.Count())
		})
	}
}

type brokenTasks struct {
	Tasks
}

func (brokenTasks) List(context.Context) ([]model.Task, error) {
	return nil, errors.New("api unreachable")
}

func (brokenTasks) Create(context.Context, string) (*model.Task, error) {
	return nil, errors.New("api unreachable")
}

func TestPageHandler_BackendDown(t *testing.T) {
	pages := newPageRouter(brokenTasks{})

	rec := getPage(pages)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tasks are unavailable right now.")

	rec = postForm(pages, "/ui/tasks", url.Values{"title": {"Anything"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
	assert.NotContains(t, rec.Body.String(), "api unreachable")
	assert.Contains(t, rec.Body.String(), `value="Anything"`)
}

// slowUpdates holds every Update until release is closed.
type slowUpdates struct {
	TaskService
	entered chan struct{}
	release chan struct{}
}

func (s slowUpdates) Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	s.entered <- struct{}{}
	<-s.release
	return s.TaskService.Update(ctx, id, patch)
}

func TestPageHandler_ToggleWhileChangePending(t *testing.T) {
	api := slowUpdates{
		TaskService: StoreTasks(repository.NewTaskStore(repository.WithSampleTasks())),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	var logs bytes.Buffer
	r := chi.NewRouter()
	NewPageHandler(board.New(api, discardLogger()), slog.New(slog.NewTextHandler(&logs, nil)), "Tasks").Routes(r)

	require.Equal(t, http.StatusOK, getPage(r).Code)

	first := make(chan int, 1)
	go func() {
		first <- postForm(r, "/ui/tasks/1/toggle", url.Values{"completed": {"false"}}).Code
	}()
	<-api.entered

	rec := postForm(r, "/ui/tasks/1/toggle", url.Values{"completed": {"false"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "task has a change in progress")
	assert.NotContains(t, rec.Body.String(), "Something went wrong")
	assert.NotContains(t, logs.String(), "level=ERROR")

	close(api.release)
	assert.Equal(t, http.StatusSeeOther, <-first)
}
