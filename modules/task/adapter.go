package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	domain "github.com/mdadnanhusaain/ToDo-List/domain/task"
)

// taskAdapter implements TaskPort over the task module's request-reply
// services.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a TaskPort backed by the container received via
// SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%w: %s service call failed: %w", domain.ErrStore, service, err)
	}
	return nil
}

func (a *taskAdapter) list(ctx context.Context, service string, req any) ([]domain.Task, error) {
	var resp TaskListReply
	if err := call(ctx, a.container, service, &req, &resp); err != nil {
		return nil, err
	}
	if err := replyErr(resp.Error); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		resp.Tasks = []domain.Task{}
	}
	return resp.Tasks, nil
}

func (a *taskAdapter) single(ctx context.Context, service string, req any) (*domain.Task, error) {
	var resp TaskReply
	if err := call(ctx, a.container, service, &req, &resp); err != nil {
		return nil, err
	}
	if err := replyErr(resp.Error); err != nil {
		return nil, err
	}
	if resp.Task == nil {
		return nil, fmt.Errorf("%w: %s returned no task", domain.ErrStore, service)
	}
	return resp.Task, nil
}

// Today lists today's tasks via the today-tasks service.
func (a *taskAdapter) Today(ctx context.Context) ([]domain.Task, error) {
	return a.list(ctx, ServiceToday, DateRequest{})
}

// ByDate lists one day's tasks via the tasks-by-date service.
func (a *taskAdapter) ByDate(ctx context.Context, date string) ([]domain.Task, error) {
	return a.list(ctx, ServiceByDate, DateRequest{Date: date})
}

// All lists every task via the list-tasks service.
func (a *taskAdapter) All(ctx context.Context) ([]domain.Task, error) {
	return a.list(ctx, ServiceList, ListTasksRequest{})
}

// Search runs a text search via the search-tasks service.
func (a *taskAdapter) Search(ctx context.Context, q string) ([]domain.Task, error) {
	return a.list(ctx, ServiceSearch, SearchRequest{Query: q})
}

// WeeklySummary fetches week counts via the weekly-summary service.
func (a *taskAdapter) WeeklySummary(ctx context.Context, date string) (domain.Summary, error) {
	req := DateRequest{Date: date}
	var resp SummaryReply
	if err := call(ctx, a.container, ServiceWeeklySummary, &req, &resp); err != nil {
		return domain.Summary{}, err
	}
	if err := replyErr(resp.Error); err != nil {
		return domain.Summary{}, err
	}
	return resp.Summary, nil
}

// Get fetches a task via the get-task service.
func (a *taskAdapter) Get(ctx context.Context, id string) (*domain.Task, error) {
	return a.single(ctx, ServiceGet, TaskIDRequest{ID: id})
}

// Create creates a task via the create-task service.
func (a *taskAdapter) Create(ctx context.Context, req *CreateTaskRequest) (*domain.Task, error) {
	return a.single(ctx, ServiceCreate, req)
}

// Update edits a task via the update-task service.
func (a *taskAdapter) Update(ctx context.Context, req *UpdateTaskRequest) (*domain.Task, error) {
	return a.single(ctx, ServiceUpdate, req)
}

// Toggle flips a task's status via the toggle-task service.
func (a *taskAdapter) Toggle(ctx context.Context, id string) (*domain.Task, error) {
	return a.single(ctx, ServiceToggle, TaskIDRequest{ID: id})
}

// Delete removes a task via the delete-task service.
func (a *taskAdapter) Delete(ctx context.Context, id string) error {
	req := TaskIDRequest{ID: id}
	var resp DeleteReply
	if err := call(ctx, a.container, ServiceDelete, &req, &resp); err != nil {
		return err
	}
	if err := replyErr(resp.Error); err != nil {
		return err
	}
	if !resp.Deleted {
		return fmt.Errorf("%w: task not deleted: %s", domain.ErrStore, id)
	}
	return nil
}
