package task

import (
	"context"
	"errors"

	"github.com/go-monolith/mono"
	domain "github.com/mdadnanhusaain/ToDo-List/domain/task"
)

// The handlers below put domain failures into the reply envelope and return a
// nil error, so the caller can still tell a validation problem from a missing
// task. Only store failures are logged here, since their detail is dropped.

func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskReply, error) {
	t, err := m.service.Create(ctx, &req)
	return TaskReply{Task: t, Error: m.flatten(ServiceCreate, err)}, nil
}

func (m *TaskModule) getTask(ctx context.Context, req TaskIDRequest, _ *mono.Msg) (TaskReply, error) {
	t, err := m.service.Get(ctx, req.ID)
	return TaskReply{Task: t, Error: m.flatten(ServiceGet, err)}, nil
}

func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskReply, error) {
	t, err := m.service.Update(ctx, &req)
	return TaskReply{Task: t, Error: m.flatten(ServiceUpdate, err)}, nil
}

func (m *TaskModule) deleteTask(ctx context.Context, req TaskIDRequest, _ *mono.Msg) (DeleteReply, error) {
	err := m.service.Delete(ctx, req.ID)
	return DeleteReply{Deleted: err == nil, Error: m.flatten(ServiceDelete, err)}, nil
}

func (m *TaskModule) toggleTask(ctx context.Context, req TaskIDRequest, _ *mono.Msg) (TaskReply, error) {
	t, err := m.service.Toggle(ctx, req.ID)
	return TaskReply{Task: t, Error: m.flatten(ServiceToggle, err)}, nil
}

func (m *TaskModule) listTasks(ctx context.Context, _ ListTasksRequest, _ *mono.Msg) (TaskListReply, error) {
	tasks, err := m.service.All(ctx)
	return m.listReply(ServiceList, tasks, err), nil
}

func (m *TaskModule) todayTasks(ctx context.Context, _ DateRequest, _ *mono.Msg) (TaskListReply, error) {
	tasks, err := m.service.Today(ctx)
	return m.listReply(ServiceToday, tasks, err), nil
}

func (m *TaskModule) tasksByDate(ctx context.Context, req DateRequest, _ *mono.Msg) (TaskListReply, error) {
	tasks, err := m.service.ByDate(ctx, req.Date)
	return m.listReply(ServiceByDate, tasks, err), nil
}

func (m *TaskModule) weeklySummary(ctx context.Context, req DateRequest, _ *mono.Msg) (SummaryReply, error) {
	summary, err := m.service.WeeklySummary(ctx, req.Date)
	return SummaryReply{Summary: summary, Error: m.flatten(ServiceWeeklySummary, err)}, nil
}

func (m *TaskModule) searchTasks(ctx context.Context, req SearchRequest, _ *mono.Msg) (TaskListReply, error) {
	tasks, err := m.service.Search(ctx, req.Query)
	return m.listReply(ServiceSearch, tasks, err), nil
}

func (m *TaskModule) listReply(service string, tasks []domain.Task, err error) TaskListReply {
	if err != nil {
		return TaskListReply{Tasks: []domain.Task{}, Error: m.flatten(service, err)}
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return TaskListReply{Tasks: tasks, Total: len(tasks)}
}

func (m *TaskModule) flatten(service string, err error) *ServiceError {
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrValidation) && !errors.Is(err, domain.ErrNotFound) {
		m.logger.Error("Task service failed", "service", service, "error", err)
	}
	return toServiceError(err)
}
