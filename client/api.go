// Package client talks to the task HTTP API and keeps a local view of the
// selected day and week in sync with it.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	domain "github.com/mdadnanhusaain/ToDo-List/domain/task"
)

// DefaultTimeout bounds every HTTP round trip.
const DefaultTimeout = 10 * time.Second

// ErrRequestFailed matches every error returned by HTTPClient.
var ErrRequestFailed = errors.New("request failed")

// RequestError is a failed API call. Status is 0 when no response arrived.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Is makes errors.Is(err, ErrRequestFailed) hold.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// NotFound reports whether the server answered 404.
func (e *RequestError) NotFound() bool {
	return e.Status == fiber.StatusNotFound
}

// NewTask is the body of a create call. Date is YYYY-MM-DD.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// TaskChanges is a partial update. Nil fields are left as they are.
type TaskChanges struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	StartTime   *string `json:"startTime,omitempty"`
	EndTime     *string `json:"endTime,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// API is the task service as seen from a client.
type API interface {
	Today(ctx context.Context) ([]domain.Task, error)
	ByDate(ctx context.Context, date string) ([]domain.Task, error)
	WeeklySummary(ctx context.Context, date string) (domain.Summary, error)
	All(ctx context.Context) ([]domain.Task, error)
	Search(ctx context.Context, q string) ([]domain.Task, error)
	Create(ctx context.Context, in NewTask) (*domain.Task, error)
	Update(ctx context.Context, id string, changes TaskChanges) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string) (*domain.Task, error)
}

var _ API = (*HTTPClient)(nil)

// HTTPClient implements API over HTTP using Fiber's client agent.
type HTTPClient struct {
	BaseURL string
	Timeout time.Duration
}

// NewHTTPClient returns a client for the API mounted at baseURL, e.g.
// http://localhost:3000/api.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: DefaultTimeout,
	}
}

// Today calls GET /tasks/today.
func (c *HTTPClient) Today(ctx context.Context) ([]domain.Task, error) {
	var out []domain.Task
	err := c.do(ctx, fiber.MethodGet, "/tasks/today", nil, &out)
	return nonNil(out), err
}

// ByDate calls GET /tasks/by-date.
func (c *HTTPClient) ByDate(ctx context.Context, date string) ([]domain.Task, error) {
	var out []domain.Task
	err := c.do(ctx, fiber.MethodGet, withQuery("/tasks/by-date", "date", date), nil, &out)
	return nonNil(out), err
}

// WeeklySummary calls GET /tasks/summary/week. An empty date means this week.
func (c *HTTPClient) WeeklySummary(ctx context.Context, date string) (domain.Summary, error) {
	var out domain.Summary
	err := c.do(ctx, fiber.MethodGet, withQuery("/tasks/summary/week", "date", date), nil, &out)
	return out, err
}

// All calls GET /tasks.
func (c *HTTPClient) All(ctx context.Context) ([]domain.Task, error) {
	var out []domain.Task
	err := c.do(ctx, fiber.MethodGet, "/tasks", nil, &out)
	return nonNil(out), err
}

// Search calls GET /tasks/search.
func (c *HTTPClient) Search(ctx context.Context, q string) ([]domain.Task, error) {
	var out []domain.Task
	err := c.do(ctx, fiber.MethodGet, withQuery("/tasks/search", "q", q), nil, &out)
	return nonNil(out), err
}

// Create calls POST /tasks.
func (c *HTTPClient) Create(ctx context.Context, in NewTask) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, fiber.MethodPost, "/tasks", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update calls PUT /tasks/:id.
func (c *HTTPClient) Update(ctx context.Context, id string, changes TaskChanges) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, fiber.MethodPut, "/tasks/"+url.PathEscape(id), changes, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete calls DELETE /tasks/:id.
func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, fiber.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

// Toggle calls PATCH /tasks/:id/toggle.
func (c *HTTPClient) Toggle(ctx context.Context, id string) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, fiber.MethodPatch, "/tasks/"+url.PathEscape(id)+"/toggle", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return &RequestError{Message: err.Error()}
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.BaseURL + path)
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return &RequestError{Message: err.Error()}
	}

	timeout := c.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout || timeout <= 0 {
			timeout = left
		}
	}
	if timeout > 0 {
		a.Timeout(timeout)
	}
	if body != nil {
		a.JSON(body)
	}

	// Bytes releases the agent.
	code, raw, errs := a.Bytes()
	if len(errs) > 0 {
		return &RequestError{Message: errs[0].Error()}
	}

	if code < 200 || code >= 300 {
		return &RequestError{Status: code, Message: serverMessage(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RequestError{Status: code, Message: "invalid response: " + err.Error()}
	}
	return nil
}

// serverMessage extracts {"message": ...} from an error body.
func serverMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return ErrRequestFailed.Error()
	}
	return body.Message
}

func withQuery(path, key, value string) string {
	if value == "" {
		return path
	}
	return path + "?" + url.Values{key: {value}}.Encode()
}

func nonNil(tasks []domain.Task) []domain.Task {
	if tasks == nil {
		return []domain.Task{}
	}
	return tasks
}
