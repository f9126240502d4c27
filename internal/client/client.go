// Package client is the HTTP request wrapper the standalone web client uses
// to talk to the task API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
)

// RequestIDHeader carries the client operation id to the API.
const RequestIDHeader = "X-Request-Id"

// APIError is a failure response the client has no domain error for.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("task api: status %d", e.Status)
	}
	return fmt.Sprintf("task api: status %d: %s: %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
}

// Client calls the task API at a base URL.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client for the API at baseURL. Requests time out after
// timeout unless WithHTTPClient supplies another client.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List fetches all tasks, newest first.
func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if _, err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get fetches a single task.
func (c *Client) Get(ctx context.Context, id int64) (*model.Task, error) {
	var task model.Task
	if _, err := c.do(ctx, http.MethodGet, taskPath(id), nil, &task); err != nil {
		return nil, mapNotFound(err, id)
	}
	return &task, nil
}

// Create adds a task.
func (c *Client) Create(ctx context.Context, title string) (*model.Task, error) {
	var task model.Task
	if _, err := c.do(ctx, http.MethodPost, "/tasks", model.CreateTaskRequest{Title: title}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies patch to task id.
func (c *Client) Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	var task model.Task
	if _, err := c.do(ctx, http.MethodPut, taskPath(id), patch, &task); err != nil {
		return nil, mapNotFound(err, id)
	}
	return &task, nil
}

// Delete removes task id. It reports false when the API has no such task.
func (c *Client) Delete(ctx context.Context, id int64) (bool, error) {
	if _, err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil); err != nil {
		var notFound *model.NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

// do sends one request and decodes the envelope's data into out. Failure
// envelopes become *model.ValidationError, *model.NotFoundError or *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &APIError{Status: resp.StatusCode}
		}
		return nil, fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return nil, failure(resp.StatusCode, &env)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("%s %s: failed to decode data: %w", method, path, err)
		}
	}
	return &env, nil
}

func failure(status int, env *envelope) error {
	switch {
	case status == http.StatusBadRequest && (env.Error == model.CodeValidation || env.Error == model.CodeInvalidID):
		return &model.ValidationError{Message: env.Message}
	case status == http.StatusNotFound && env.Error == model.CodeNotFound:
		return &model.NotFoundError{}
	default:
		return &APIError{Status: status, Code: env.Error, Message: env.Message}
	}
}

// mapNotFound fills in the id the API did not echo back.
func mapNotFound(err error, id int64) error {
	var notFound *model.NotFoundError
	if errors.As(err, &notFound) {
		notFound.ID = id
	}
	return err
}
