package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/mdadnanhusaain/ToDo-List/events"
	"github.com/mdadnanhusaain/ToDo-List/modules/cache"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the task module settings.
type Config struct {
	DBPath    string
	DBDebug   bool
	Location  *time.Location
	WeekStart time.Weekday
}

// TaskModule owns task storage and exposes the task services.
type TaskModule struct {
	cfg      Config
	logger   types.Logger
	db       *gorm.DB
	repo     *Repository
	service  *Service
	cache    SummaryCache
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*TaskModule)(nil)
	_ mono.ServiceProviderModule = (*TaskModule)(nil)
	_ mono.EventEmitterModule    = (*TaskModule)(nil)
	_ mono.HealthCheckableModule = (*TaskModule)(nil)
	_ mono.UsePluginModule       = (*TaskModule)(nil)
)

// NewModule creates a new TaskModule.
func NewModule(cfg Config, logger types.Logger) *TaskModule {
	if cfg.DBPath == "" {
		cfg.DBPath = "tasks.db"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &TaskModule{
		cfg:    cfg,
		logger: logger.WithModule("task"),
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// SetEventBus receives the event bus before Start.
func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskToggledV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

// SetPlugin receives the optional summary cache plugin.
func (m *TaskModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "cache" {
		return
	}
	if cachePlugin, ok := plugin.(*cache.PluginModule); ok {
		m.cache = cachePlugin.Port()
		m.logger.Info("Summary cache plugin injected")
	}
}

// Service returns the task service. It is nil until Start.
func (m *TaskModule) Service() *Service {
	return m.service
}

// RegisterServices registers the task request-reply services.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreate, json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreate, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGet, json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGet, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdate, json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdate, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDelete, json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDelete, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceToggle, json.Unmarshal, json.Marshal, m.toggleTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceToggle, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceList, json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceList, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceToday, json.Unmarshal, json.Marshal, m.todayTasks,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceToday, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceByDate, json.Unmarshal, json.Marshal, m.tasksByDate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceByDate, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceWeeklySummary, json.Unmarshal, json.Marshal, m.weeklySummary,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceWeeklySummary, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSearch, json.Unmarshal, json.Marshal, m.searchTasks,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSearch, err)
	}

	m.logger.Info("Registered services", "services", []string{
		ServiceCreate, ServiceGet, ServiceUpdate, ServiceDelete, ServiceToggle,
		ServiceList, ServiceToday, ServiceByDate, ServiceWeeklySummary, ServiceSearch,
	})
	return nil
}

// Start opens the database, runs migrations and builds the service.
func (m *TaskModule) Start(ctx context.Context) error {
	m.logger.Info("Connecting to SQLite database", "path", m.cfg.DBPath)

	logLevel := logger.Silent
	if m.cfg.DBDebug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.cfg.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db
	m.repo = NewRepository(db)

	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	opts := []ServiceOption{
		WithLocation(m.cfg.Location),
		WithWeekStart(m.cfg.WeekStart),
	}
	if m.cache != nil {
		opts = append(opts, WithSummaryCache(m.cache))
	}
	if m.eventBus != nil {
		opts = append(opts, WithEventBus(m.eventBus))
	} else {
		m.logger.Warn("Event bus not set, task events will not be published")
	}
	m.service = NewService(m.repo, m.logger, opts...)

	// Summaries cached by a previous process may predate writes made since.
	m.service.InvalidateSummaries(ctx)

	m.logger.Info("Module started",
		"timezone", m.cfg.Location.String(),
		"weekStart", m.cfg.WeekStart.String(),
		"summaryCache", m.cache != nil)
	return nil
}

// Stop closes the database connection.
func (m *TaskModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				m.logger.Error("Failed to close database", "error", err)
			}
		}
	}
	m.logger.Info("Module stopped")
	return nil
}

// Health performs a health check on the task database.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.cfg.DBPath,
		},
	}
}
