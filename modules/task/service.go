package task

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/mdadnanhusaain/ToDo-List/domain/datekey"
	domain "github.com/mdadnanhusaain/ToDo-List/domain/task"
	"github.com/mdadnanhusaain/ToDo-List/events"
	"golang.org/x/sync/singleflight"
)

// Store is the persistence the service runs on. *Repository implements it.
type Store interface {
	Create(ctx context.Context, t *domain.Task) error
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, id string, patch domain.Patch) (*domain.Task, error)
	Toggle(ctx context.Context, id string) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	ListByDayRange(ctx context.Context, rng datekey.Range) ([]domain.Task, error)
	ListAll(ctx context.Context) ([]domain.Task, error)
	AggregateWeek(ctx context.Context, rng datekey.Range) (domain.Summary, error)
	Search(ctx context.Context, q string) ([]domain.Task, error)
}

// SummaryCache stores weekly summaries between requests. *cache.Cache
// implements it.
type SummaryCache interface {
	GetSummary(ctx context.Context, key string) (domain.Summary, bool, error)
	PutSummary(ctx context.Context, key string, s domain.Summary) error
	DropSummaries(ctx context.Context, keyPrefix string) error
}

const summaryKeyPrefix = "summary:"

// Service implements the task operations behind the HTTP contract.
type Service struct {
	store     Store
	logger    types.Logger
	cache     SummaryCache
	eventBus  mono.EventBus
	loc       *time.Location
	weekStart time.Weekday
	now       func() time.Time

	// generation is bumped on every mutation and is part of each summary
	// key, so a fill that raced a mutation writes to a key nobody reads.
	generation atomic.Uint64
	sf         singleflight.Group
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLocation sets the zone calendar days are interpreted in.
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithWeekStart sets the first day of a summary week.
func WithWeekStart(day time.Weekday) ServiceOption {
	return func(s *Service) { s.weekStart = day }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSummaryCache enables read-through caching of weekly summaries.
func WithSummaryCache(c SummaryCache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithEventBus enables task event publishing.
func WithEventBus(bus mono.EventBus) ServiceOption {
	return func(s *Service) { s.eventBus = bus }
}

// NewService creates a task service. Days are local to time.Local and weeks
// start on Monday unless overridden.
func NewService(store Store, logger types.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		logger:    logger,
		loc:       time.Local,
		weekStart: time.Monday,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the tasks dated today in the service's zone.
func (s *Service) Today(ctx context.Context) ([]domain.Task, error) {
	return s.store.ListByDayRange(ctx, datekey.DayRange(s.today(), s.loc))
}

// ByDate returns the tasks dated on the given YYYY-MM-DD day.
func (s *Service) ByDate(ctx context.Context, date string) ([]domain.Task, error) {
	if strings.TrimSpace(date) == "" {
		return nil, fmt.Errorf("%w: date parameter is required", domain.ErrValidation)
	}
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	return s.store.ListByDayRange(ctx, datekey.DayRange(d, s.loc))
}

// WeeklySummary counts completed and pending tasks in the week containing
// date, or the current week when date is empty.
func (s *Service) WeeklySummary(ctx context.Context, date string) (domain.Summary, error) {
	d := s.today()
	if strings.TrimSpace(date) != "" {
		parsed, err := parseDate(date)
		if err != nil {
			return domain.Summary{}, err
		}
		d = parsed
	}

	rng := datekey.WeekRange(d, s.weekStart, s.loc)
	if s.cache == nil {
		return s.store.AggregateWeek(ctx, rng)
	}

	key := s.summaryKey(rng)
	cached, hit, err := s.cache.GetSummary(ctx, key)
	if err != nil {
		s.logger.Warn("Summary cache read failed", "key", key, "error", err)
	} else if hit {
		return cached, nil
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		summary, err := s.store.AggregateWeek(ctx, rng)
		if err != nil {
			return nil, err
		}
		if err := s.cache.PutSummary(ctx, key, summary); err != nil {
			s.logger.Warn("Summary cache write failed", "key", key, "error", err)
		}
		return summary, nil
	})
	if err != nil {
		return domain.Summary{}, err
	}
	return v.(domain.Summary), nil
}

// All returns every task ordered by date.
func (s *Service) All(ctx context.Context) ([]domain.Task, error) {
	return s.store.ListAll(ctx)
}

// Get returns a single task.
func (s *Service) Get(ctx context.Context, id string) (*domain.Task, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}

// Create validates and stores a new task.
func (s *Service) Create(ctx context.Context, req *CreateTaskRequest) (*domain.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.Date) == "" {
		return nil, fmt.Errorf("%w: title and date are required", domain.ErrValidation)
	}
	d, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	t := &domain.Task{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Date:        d,
		StartTime:   strings.TrimSpace(req.StartTime),
		EndTime:     strings.TrimSpace(req.EndTime),
		Priority:    domain.Priority(req.Priority),
		Status:      domain.Status(req.Status),
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.Status == "" {
		t.Status = domain.StatusPending
	}

	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	s.invalidateSummaries(ctx)

	if s.eventBus != nil {
		err := events.TaskCreatedV1.Publish(s.eventBus, events.TaskCreatedEvent{
			TaskID:    t.ID,
			Title:     t.Title,
			Date:      t.Date.String(),
			Priority:  string(t.Priority),
			CreatedAt: t.CreatedAt,
		}, nil)
		s.logPublishErr(err, "TaskCreated", t.ID)
	}

	return t, nil
}

// Update replaces the supplied fields of an existing task.
func (s *Service) Update(ctx context.Context, req *UpdateTaskRequest) (*domain.Task, error) {
	if err := requireID(req.ID); err != nil {
		return nil, err
	}
	patch, err := req.patch()
	if err != nil {
		return nil, err
	}

	t, err := s.store.Update(ctx, req.ID, patch)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return t, nil
	}
	s.invalidateSummaries(ctx)

	fields := make([]string, 0, len(patch.Columns()))
	for col := range patch.Columns() {
		fields = append(fields, col)
	}
	sort.Strings(fields)

	if s.eventBus != nil {
		err := events.TaskUpdatedV1.Publish(s.eventBus, events.TaskUpdatedEvent{
			TaskID:    t.ID,
			Title:     t.Title,
			Date:      t.Date.String(),
			Fields:    fields,
			UpdatedAt: t.UpdatedAt,
		}, nil)
		s.logPublishErr(err, "TaskUpdated", t.ID)
	}

	return t, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateSummaries(ctx)

	if s.eventBus != nil {
		err := events.TaskDeletedV1.Publish(s.eventBus, events.TaskDeletedEvent{
			TaskID:    id,
			DeletedAt: s.now(),
		}, nil)
		s.logPublishErr(err, "TaskDeleted", id)
	}

	return nil
}

// Toggle flips a task between pending and completed.
func (s *Service) Toggle(ctx context.Context, id string) (*domain.Task, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	t, err := s.store.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidateSummaries(ctx)

	if s.eventBus != nil {
		err := events.TaskToggledV1.Publish(s.eventBus, events.TaskToggledEvent{
			TaskID:    t.ID,
			Title:     t.Title,
			Status:    string(t.Status),
			ToggledAt: t.UpdatedAt,
		}, nil)
		s.logPublishErr(err, "TaskToggled", t.ID)
	}

	return t, nil
}

// Search returns tasks whose title or description contains q. A blank q
// returns no tasks without touching the store.
func (s *Service) Search(ctx context.Context, q string) ([]domain.Task, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.Task{}, nil
	}
	return s.store.Search(ctx, q)
}

// InvalidateSummaries drops every cached weekly summary.
func (s *Service) InvalidateSummaries(ctx context.Context) {
	s.invalidateSummaries(ctx)
}

func (s *Service) invalidateSummaries(ctx context.Context) {
	s.generation.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.DropSummaries(ctx, summaryKeyPrefix); err != nil {
		s.logger.Warn("Summary cache invalidation failed", "error", err)
	}
}

func (s *Service) summaryKey(rng datekey.Range) string {
	return fmt.Sprintf("%s%d:%s:%s", summaryKeyPrefix, s.generation.Load(), strings.ToLower(s.weekStart.String()), rng.From)
}

// logPublishErr logs a failed publication. Events are best-effort and never
// fail the operation that produced them.
func (s *Service) logPublishErr(err error, event, taskID string) {
	if err != nil {
		s.logger.Warn("Failed to publish event", "event", event, "taskID", taskID, "error", err)
	}
}

func (s *Service) today() datekey.Date {
	return datekey.FromTime(s.now(), s.loc)
}

func parseDate(s string) (datekey.Date, error) {
	d, err := datekey.Parse(strings.TrimSpace(s))
	if err != nil {
		return datekey.Date{}, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}
	return d, nil
}
