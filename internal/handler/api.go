package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/telemetry"
	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/validator"
)

var tracer = otel.Tracer("github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/handler")

// TaskHandler handles JSON API requests for tasks.
type TaskHandler struct {
	tasks   TaskService
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks TaskService, logger *slog.Logger, metrics *telemetry.Metrics) *TaskHandler {
	return &TaskHandler{
		tasks:   tasks,
		logger:  logger,
		metrics: metrics,
	}
}

// Routes returns the chi router with task routes.
func (h *TaskHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// List returns all tasks, newest first.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "TaskHandler.List")
	defer span.End()
	r = r.WithContext(ctx)

	tasks, err := h.tasks.List(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		respondFailure(w, r, h.logger, err)
		return
	}

	count := len(tasks)
	span.SetAttributes(attribute.Int("task.count", count))
	h.logger.DebugContext(ctx, "tasks listed", slog.Int("count", count))

	respondJSON(w, http.StatusOK, model.Envelope{Success: true, Data: tasks, Count: &count})
}

// Get returns a task by ID.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	ctx, span := tracer.Start(r.Context(), "TaskHandler.Get",
		trace.WithAttributes(attribute.Int64("task.id", id)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	task, err := h.tasks.Get(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		respondFailure(w, r, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, task, "")
}

// Create adds a new task.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "TaskHandler.Create")
	defer span.End()
	r = r.WithContext(ctx)

	var req model.CreateTaskRequest
	if err := validator.Validate(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		h.metrics.RecordMutation(ctx, "create", "rejected")
		respondFailure(w, r, h.logger, err)
		return
	}

	task, err := h.tasks.Create(ctx, req.Title)
	if err != nil {
		h.metrics.RecordMutation(ctx, "create", outcome(err))
		span.SetStatus(codes.Error, err.Error())
		respondFailure(w, r, h.logger, err)
		return
	}

	span.SetAttributes(attribute.Int64("task.id", task.ID))
	h.metrics.RecordMutation(ctx, "create", "ok")
	h.logger.InfoContext(ctx, "task created", slog.Int64("id", task.ID))

	respondData(w, http.StatusCreated, task, "Task created")
}

// Update applies a partial patch to an existing task.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	ctx, span := tracer.Start(r.Context(), "TaskHandler.Update",
		trace.WithAttributes(attribute.Int64("task.id", id)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	patch, err := validator.DecodePatch(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.metrics.RecordMutation(ctx, "update", "rejected")
		respondFailure(w, r, h.logger, err)
		return
	}

	task, err := h.tasks.Update(ctx, id, patch)
	if err != nil {
		h.metrics.RecordMutation(ctx, "update", outcome(err))
		span.SetStatus(codes.Error, err.Error())
		respondFailure(w, r, h.logger, err)
		return
	}

	h.metrics.RecordMutation(ctx, "update", "ok")
	h.logger.InfoContext(ctx, "task updated", slog.Int64("id", id))

	respondData(w, http.StatusOK, task, "Task updated")
}

// Delete removes a task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	ctx, span := tracer.Start(r.Context(), "TaskHandler.Delete",
		trace.WithAttributes(attribute.Int64("task.id", id)),
	)
	defer span.End()
	r = r.WithContext(ctx)

	deleted, err := h.tasks.Delete(ctx, id)
	if err != nil {
		h.metrics.RecordMutation(ctx, "delete", outcome(err))
		span.SetStatus(codes.Error, err.Error())
		respondFailure(w, r, h.logger, err)
		return
	}
	if !deleted {
		h.metrics.RecordMutation(ctx, "delete", "not_found")
		respondFailure(w, r, h.logger, &model.NotFoundError{ID: id})
		return
	}

	h.metrics.RecordMutation(ctx, "delete", "ok")
	h.logger.InfoContext(ctx, "task deleted", slog.Int64("id", id))

	respondData(w, http.StatusOK, nil, "Task deleted")
}

// Health returns a health check response.
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound answers unknown routes with the standard envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, model.CodeNotFound, "route not found")
}

// MethodNotAllowed answers a known route called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, model.CodeMethodNotAllowed, r.Method+" is not allowed here")
}

// parseID reads the {id} URL parameter and answers 400 when it is not a
// positive integer.
func (h *TaskHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		h.logger.WarnContext(r.Context(), "malformed task id", slog.String("id", raw))
		respondError(w, http.StatusBadRequest, model.CodeInvalidID, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func outcome(err error) string {
	switch status, _ := statusFor(err); status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusInternalServerError:
		return "error"
	default:
		return "rejected"
	}
}
