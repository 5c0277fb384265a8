package task

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mdadnanhusaain/ToDo-List/domain/task"
)

// Service names registered by the task module.
const (
	ServiceCreate        = "create-task"
	ServiceGet           = "get-task"
	ServiceUpdate        = "update-task"
	ServiceDelete        = "delete-task"
	ServiceToggle        = "toggle-task"
	ServiceList          = "list-tasks"
	ServiceToday         = "today-tasks"
	ServiceByDate        = "tasks-by-date"
	ServiceWeeklySummary = "weekly-summary"
	ServiceSearch        = "search-tasks"
)

// CreateTaskRequest is the request for creating a task. Date is YYYY-MM-DD.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

// UpdateTaskRequest is the request for updating a task. Only non-nil fields
// are changed.
type UpdateTaskRequest struct {
	ID          string  `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	StartTime   *string `json:"startTime,omitempty"`
	EndTime     *string `json:"endTime,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// TaskIDRequest addresses a single task.
type TaskIDRequest struct {
	ID string `json:"id"`
}

// DateRequest carries an optional YYYY-MM-DD day.
type DateRequest struct {
	Date string `json:"date,omitempty"`
}

// SearchRequest is the request for a text search.
type SearchRequest struct {
	Query string `json:"q"`
}

// ListTasksRequest is the request for listing every task.
type ListTasksRequest struct{}

// TaskReply carries a single task or the reason there is none.
type TaskReply struct {
	Task  *domain.Task  `json:"task,omitempty"`
	Error *ServiceError `json:"error,omitempty"`
}

// TaskListReply carries a list of tasks.
type TaskListReply struct {
	Tasks []domain.Task `json:"tasks"`
	Total int           `json:"total"`
	Error *ServiceError `json:"error,omitempty"`
}

// SummaryReply carries a weekly summary.
type SummaryReply struct {
	Summary domain.Summary `json:"summary"`
	Error   *ServiceError  `json:"error,omitempty"`
}

// DeleteReply reports whether the task was removed.
type DeleteReply struct {
	Deleted bool          `json:"deleted"`
	Error   *ServiceError `json:"error,omitempty"`
}

// Error codes carried across the service boundary.
const (
	CodeValidation = "validation"
	CodeNotFound   = "not_found"
	CodeInternal   = "internal"
)

// ServiceError is a domain error flattened for transport. Sentinel errors do
// not survive serialization, so replies carry a code instead.
type ServiceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap maps the code back to the matching domain sentinel.
func (e *ServiceError) Unwrap() error {
	switch e.Code {
	case CodeValidation:
		return domain.ErrValidation
	case CodeNotFound:
		return domain.ErrNotFound
	default:
		return domain.ErrStore
	}
}

const internalMessage = "internal error"

// toServiceError flattens err. Store failures lose their detail here; the
// caller is expected to have logged it.
func toServiceError(err error) *ServiceError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidation):
		return &ServiceError{Code: CodeValidation, Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return &ServiceError{Code: CodeNotFound, Message: err.Error()}
	default:
		return &ServiceError{Code: CodeInternal, Message: internalMessage}
	}
}

func replyErr(e *ServiceError) error {
	if e == nil {
		return nil
	}
	return e
}

// TaskPort defines the task operations available to driving adapters such
// as the HTTP API. Errors match domain.ErrValidation, domain.ErrNotFound or
// domain.ErrStore under errors.Is.
type TaskPort interface {
	Today(ctx context.Context) ([]domain.Task, error)
	ByDate(ctx context.Context, date string) ([]domain.Task, error)
	WeeklySummary(ctx context.Context, date string) (domain.Summary, error)
	All(ctx context.Context) ([]domain.Task, error)
	Get(ctx context.Context, id string) (*domain.Task, error)
	Create(ctx context.Context, req *CreateTaskRequest) (*domain.Task, error)
	Update(ctx context.Context, req *UpdateTaskRequest) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string) (*domain.Task, error)
	Search(ctx context.Context, q string) ([]domain.Task, error)
}

var _ TaskPort = (*Service)(nil)

func (r *UpdateTaskRequest) patch() (domain.Patch, error) {
	p := domain.Patch{
		Title:       r.Title,
		Description: r.Description,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
	}
	if r.Date != nil {
		d, err := parseDate(*r.Date)
		if err != nil {
			return domain.Patch{}, err
		}
		p.Date = &d
	}
	if r.Priority != nil {
		pr := domain.Priority(*r.Priority)
		p.Priority = &pr
	}
	if r.Status != nil {
		st := domain.Status(*r.Status)
		p.Status = &st
	}
	if err := p.Validate(); err != nil {
		return domain.Patch{}, err
	}
	return p, nil
}

func requireID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", domain.ErrValidation)
	}
	return nil
}
