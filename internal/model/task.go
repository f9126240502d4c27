package model

import (
	"time"
)

// MaxTitleLength is the maximum number of characters in a trimmed title.
const MaxTitleLength = 200

// Task represents a todo item in the system.
type Task struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// CreateTaskRequest represents the request body for creating a task.
// Length is checked on the trimmed title by the store.
type CreateTaskRequest struct {
	Title string `json:"title" validate:"required"`
}

// TaskPatch names the fields to change on an existing task.
// A nil field is left untouched.
type TaskPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Completed == nil
}

// Apply merges the patch into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
