package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Heading string
	Tasks   []model.Task
	Error   string
	Title   string
}

// PageHandler renders the task list as HTML and accepts plain form posts.
type PageHandler struct {
	tasks   Tasks
	logger  *slog.Logger
	heading string
}

// NewPageHandler creates a new PageHandler. heading titles the page.
func NewPageHandler(tasks Tasks, logger *slog.Logger, heading string) *PageHandler {
	return &PageHandler{
		tasks:   tasks,
		logger:  logger,
		heading: heading,
	}
}

// Routes registers the page and its form actions on r.
func (h *PageHandler) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Route("/ui/tasks", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Post("/{id}/toggle", h.Toggle)
		r.Post("/{id}/rename", h.Rename)
		r.Post("/{id}/delete", h.Delete)
	})
}

// Index renders the task list.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageData{})
}

// Create adds a task from the title form field.
func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	title := r.PostFormValue("title")

	if _, err := h.tasks.Create(r.Context(), title); err != nil {
		h.fail(w, r, err, title)
		return
	}

	redirectHome(w, r)
}

// Toggle sets the completed flag from the completed form field.
func (h *PageHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	completed, err := strconv.ParseBool(r.PostFormValue("completed"))
	if err != nil {
		h.fail(w, r, model.NewValidationError("completed", "must be true or false"), "")
		return
	}

	if _, err := h.tasks.Update(r.Context(), id, model.TaskPatch{Completed: &completed}); err != nil {
		h.fail(w, r, err, "")
		return
	}

	redirectHome(w, r)
}

// Rename replaces the title from the title form field.
func (h *PageHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	title := r.PostFormValue("title")
	if _, err := h.tasks.Update(r.Context(), id, model.TaskPatch{Title: &title}); err != nil {
		h.fail(w, r, err, "")
		return
	}

	redirectHome(w, r)
}

// Delete removes a task.
func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	deleted, err := h.tasks.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if !deleted {
		h.fail(w, r, &model.NotFoundError{ID: id}, "")
		return
	}

	redirectHome(w, r)
}

func (h *PageHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		h.render(w, r, http.StatusBadRequest, pageData{Error: "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

// fail re-renders the list with the error. title keeps the rejected input in
// the create form.
func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error, title string) {
	status, _ := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "page action failed", slog.Any("error", err))
		msg = "Something went wrong. Please try again."
	}

	h.render(w, r, status, pageData{Error: msg, Title: title})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	tasks, err := h.tasks.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list tasks", slog.Any("error", err))
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		if data.Error == "" {
			data.Error = "Tasks are unavailable right now."
		}
	}

	data.Heading = h.heading
	data.Tasks = tasks

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
