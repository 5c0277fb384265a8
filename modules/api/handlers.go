package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	domain "github.com/mdadnanhusaain/ToDo-List/domain/task"
	"github.com/mdadnanhusaain/ToDo-List/modules/task"
)

const defaultActivityLimit = 20

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", m.healthHandler)
	api.Get("/activity", m.listActivity)

	tasks := api.Group("/tasks")
	tasks.Get("/today", m.todayTasks)
	tasks.Get("/by-date", m.tasksByDate)
	tasks.Get("/summary/week", m.weeklySummary)
	tasks.Get("/search", m.searchTasks)
	tasks.Get("/", m.listTasks)
	tasks.Post("/", m.createTask)
	tasks.Get("/:id", m.getTask)
	tasks.Put("/:id", m.updateTask)
	tasks.Delete("/:id", m.deleteTask)
	tasks.Patch("/:id/toggle", m.toggleTask)
}

// healthHandler handles GET /api/health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "ok"})
}

// todayTasks handles GET /api/tasks/today.
func (m *APIModule) todayTasks(c *fiber.Ctx) error {
	tasks, err := m.tasks.Today(c.UserContext())
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(tasks)
}

// tasksByDate handles GET /api/tasks/by-date?date=YYYY-MM-DD.
func (m *APIModule) tasksByDate(c *fiber.Ctx) error {
	date := c.Query("date")
	if strings.TrimSpace(date) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "Date parameter is required"})
	}

	tasks, err := m.tasks.ByDate(c.UserContext(), date)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(tasks)
}

// weeklySummary handles GET /api/tasks/summary/week[?date=YYYY-MM-DD].
func (m *APIModule) weeklySummary(c *fiber.Ctx) error {
	summary, err := m.tasks.WeeklySummary(c.UserContext(), c.Query("date"))
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(summary)
}

// searchTasks handles GET /api/tasks/search?q=.
func (m *APIModule) searchTasks(c *fiber.Ctx) error {
	tasks, err := m.tasks.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(tasks)
}

// listTasks handles GET /api/tasks.
func (m *APIModule) listTasks(c *fiber.Ctx) error {
	tasks, err := m.tasks.All(c.UserContext())
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(tasks)
}

// getTask handles GET /api/tasks/:id.
func (m *APIModule) getTask(c *fiber.Ctx) error {
	t, err := m.tasks.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(t)
}

// createTask handles POST /api/tasks.
func (m *APIModule) createTask(c *fiber.Ctx) error {
	var req task.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "Invalid request body"})
	}

	t, err := m.tasks.Create(c.UserContext(), &req)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// updateTask handles PUT /api/tasks/:id. Absent fields keep their values.
func (m *APIModule) updateTask(c *fiber.Ctx) error {
	var req task.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "Invalid request body"})
	}
	req.ID = c.Params("id")

	t, err := m.tasks.Update(c.UserContext(), &req)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(t)
}

// deleteTask handles DELETE /api/tasks/:id.
func (m *APIModule) deleteTask(c *fiber.Ctx) error {
	if err := m.tasks.Delete(c.UserContext(), c.Params("id")); err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Deleted"})
}

// toggleTask handles PATCH /api/tasks/:id/toggle.
func (m *APIModule) toggleTask(c *fiber.Ctx) error {
	t, err := m.tasks.Toggle(c.UserContext(), c.Params("id"))
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(t)
}

// listActivity handles GET /api/activity?limit=.
func (m *APIModule) listActivity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultActivityLimit)
	entries, err := m.activity.Recent(c.UserContext(), limit)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(entries)
}

// writeError maps domain errors to status codes. Store failures are logged
// and answered with a generic message.
func (m *APIModule) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: detail(err, domain.ErrValidation)})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Message: "Task not found"})
	default:
		m.logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Message: "Internal server error"})
	}
}

// detail strips the sentinel prefix from a wrapped error message.
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return sentinel.Error()
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
