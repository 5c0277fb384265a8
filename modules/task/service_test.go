package task

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/mdadnanhusaain/ToDo-List/domain/datekey"
	domain "github.com/mdadnanhusaain/ToDo-List/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

// spyStore counts the calls that reach the underlying repository.
type spyStore struct {
	*Repository
	mu        sync.Mutex
	searches  int
	aggregate int
}

func (s *spyStore) Search(ctx context.Context, q string) ([]domain.Task, error) {
	s.mu.Lock()
	s.searches++
	s.mu.Unlock()
	return s.Repository.Search(ctx, q)
}

func (s *spyStore) AggregateWeek(ctx context.Context, rng datekey.Range) (domain.Summary, error) {
	s.mu.Lock()
	s.aggregate++
	s.mu.Unlock()
	return s.Repository.AggregateWeek(ctx, rng)
}

// memoryCache is an in-process SummaryCache.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]domain.Summary
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]domain.Summary)}
}

func (c *memoryCache) GetSummary(_ context.Context, key string) (domain.Summary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.data[key]
	return s, ok, nil
}

func (c *memoryCache) PutSummary(_ context.Context, key string, s domain.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = s
	return nil
}

func (c *memoryCache) DropSummaries(_ context.Context, keyPrefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if strings.HasPrefix(key, keyPrefix) {
			delete(c.data, key)
		}
	}
	return nil
}

func (c *memoryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

var utcMinus8 = time.FixedZone("UTC-8", -8*60*60)

// 18:00 on 2024-03-15 at UTC-8, already the 16th in UTC.
var fixedNow = time.Date(2024, time.March, 16, 2, 0, 0, 0, time.UTC)

func setupTestService(t *testing.T, opts ...ServiceOption) (*Service, *spyStore) {
	t.Helper()
	store := &spyStore{Repository: NewRepository(setupTestDB(t))}
	base := []ServiceOption{
		WithLocation(utcMinus8),
		WithClock(func() time.Time { return fixedNow }),
	}
	return NewService(store, &mockLogger{}, append(base, opts...)...), store
}

func create(t *testing.T, svc *Service, title, date string) *domain.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), &CreateTaskRequest{Title: title, Date: date})
	require.NoError(t, err)
	return task
}

func titles(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}

func TestService_DateStaysOnItsCalendarDay(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	created := create(t, svc, "Pay rent", "2024-03-15")
	assert.Equal(t, "2024-03-15", created.Date.String())

	onDay, err := svc.ByDate(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pay rent"}, titles(onDay))

	dayBefore, err := svc.ByDate(ctx, "2024-03-14")
	require.NoError(t, err)
	assert.Empty(t, dayBefore)

	today, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pay rent"}, titles(today))

	raw, err := json.Marshal(created)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"date":"2024-03-15"`)
}

func TestService_DateStaysOnItsCalendarDay_FractionalOffsets(t *testing.T) {
	zones := []*time.Location{
		time.FixedZone("UTC+5:30", 5*60*60+30*60),
		time.FixedZone("UTC-3:30", -(3*60*60 + 30*60)),
		time.FixedZone("UTC+5:45", 5*60*60+45*60),
	}

	for _, loc := range zones {
		for _, clock := range []string{"00:10", "23:50"} {
			t.Run(loc.String()+" "+clock, func(t *testing.T) {
				local, err := time.ParseInLocation("2006-01-02 15:04", "2024-03-15 "+clock, loc)
				require.NoError(t, err)
				svc, _ := setupTestService(t,
					WithLocation(loc),
					WithClock(func() time.Time { return local.UTC() }),
				)
				ctx := context.Background()

				created := create(t, svc, "Pay rent", "2024-03-15")
				assert.Equal(t, "2024-03-15", created.Date.String())

				for date, want := range map[string][]string{
					"2024-03-14": {},
					"2024-03-15": {"Pay rent"},
					"2024-03-16": {},
				} {
					tasks, err := svc.ByDate(ctx, date)
					require.NoError(t, err)
					assert.Equal(t, want, titles(tasks), "ByDate(%s)", date)
				}

				today, err := svc.Today(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"Pay rent"}, titles(today))

				summary, err := svc.WeeklySummary(ctx, "")
				require.NoError(t, err)
				assert.Equal(t, domain.Summary{Pending: 1}, summary)
			})
		}
	}
}

func TestService_Create(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, &CreateTaskRequest{
		Title:       "  Dentist  ",
		Description: " bring card ",
		Date:        "2024-03-15",
		StartTime:   "09:00",
		EndTime:     "10:00",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Dentist", task.Title)
	assert.Equal(t, "bring card", task.Description)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, "09:00", task.StartTime)
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := setupTestService(t)

	tests := []struct {
		name string
		req  CreateTaskRequest
	}{
		{name: "missing title", req: CreateTaskRequest{Date: "2024-03-15"}},
		{name: "blank title", req: CreateTaskRequest{Title: "  ", Date: "2024-03-15"}},
		{name: "missing date", req: CreateTaskRequest{Title: "x"}},
		{name: "malformed date", req: CreateTaskRequest{Title: "x", Date: "15/03/2024"}},
		{name: "impossible date", req: CreateTaskRequest{Title: "x", Date: "2024-02-30"}},
		{name: "unknown priority", req: CreateTaskRequest{Title: "x", Date: "2024-03-15", Priority: "urgent"}},
		{name: "unknown status", req: CreateTaskRequest{Title: "x", Date: "2024-03-15", Status: "done"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), &tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestService_ByDateValidation(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.ByDate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ByDate(ctx, "yesterday")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_WeeklySummary(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	a := create(t, svc, "Mon", "2024-03-11")
	b := create(t, svc, "Wed", "2024-03-13")
	create(t, svc, "Sun", "2024-03-17")
	create(t, svc, "Outside", "2024-03-18")

	_, err := svc.Toggle(ctx, a.ID)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, b.ID)
	require.NoError(t, err)

	summary, err := svc.WeeklySummary(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{Completed: 2, Pending: 1}, summary)

	// The clock sits on 2024-03-15 at UTC-8, so the default week is the same.
	current, err := svc.WeeklySummary(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, summary, current)

	empty, err := svc.WeeklySummary(ctx, "2030-01-01")
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{}, empty)

	_, err = svc.WeeklySummary(ctx, "not-a-date")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_WeeklySummary_SundayStart(t *testing.T) {
	svc, _ := setupTestService(t, WithWeekStart(time.Sunday))
	ctx := context.Background()

	create(t, svc, "Sun before", "2024-03-10")
	create(t, svc, "Sun after", "2024-03-17")

	summary, err := svc.WeeklySummary(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{Pending: 1}, summary)
}

func TestService_ToggleTwiceRestoresStatus(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	task := create(t, svc, "Laundry", "2024-03-15")

	once, err := svc.Toggle(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, once.Status)

	twice, err := svc.Toggle(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Status, twice.Status)
}

func TestService_UpdateUnknownID(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	title := "anything"
	_, err := svc.Update(ctx, &UpdateTaskRequest{ID: "does-not-exist", Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestService_Update(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	task := create(t, svc, "Call mom", "2024-03-15")

	newDate := "2024-03-16"
	completed := string(domain.StatusCompleted)
	updated, err := svc.Update(ctx, &UpdateTaskRequest{ID: task.ID, Date: &newDate, Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-16", updated.Date.String())
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, "Call mom", updated.Title)

	blank := " "
	_, err = svc.Update(ctx, &UpdateTaskRequest{ID: task.ID, Title: &blank})
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad := "16-03-2024"
	_, err = svc.Update(ctx, &UpdateTaskRequest{ID: task.ID, Date: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)

	unchanged, err := svc.Update(ctx, &UpdateTaskRequest{ID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, updated.Title, unchanged.Title)
}

func TestService_Delete(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	task := create(t, svc, "Temporary", "2024-03-15")
	require.NoError(t, svc.Delete(ctx, task.ID))

	_, err := svc.Get(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, task.ID), domain.ErrNotFound)
}

func TestService_Search(t *testing.T) {
	svc, store := setupTestService(t)
	ctx := context.Background()

	create(t, svc, "Buy milk", "2024-03-15")

	for _, q := range []string{"", "   ", "\t"} {
		tasks, err := svc.Search(ctx, q)
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	}
	assert.Equal(t, 0, store.searches, "blank queries must not reach the store")

	tasks, err := svc.Search(ctx, "  MILK ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Buy milk"}, titles(tasks))
	assert.Equal(t, 1, store.searches)
}

func TestService_All(t *testing.T) {
	svc, _ := setupTestService(t)

	create(t, svc, "b", "2024-03-20")
	create(t, svc, "a", "2024-03-10")

	tasks, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(tasks))
}

func TestService_SummaryCache(t *testing.T) {
	cache := newMemoryCache()
	svc, store := setupTestService(t, WithSummaryCache(cache))
	ctx := context.Background()

	task := create(t, svc, "Cached", "2024-03-15")

	first, err := svc.WeeklySummary(ctx, "2024-03-15")
	require.NoError(t, err)
	second, err := svc.WeeklySummary(ctx, "2024-03-13")
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{Pending: 1}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.aggregate, "second read of the same week should hit the cache")

	_, err = svc.Toggle(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.len(), "mutation must drop cached summaries")

	after, err := svc.WeeklySummary(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{Completed: 1}, after)
	assert.Equal(t, 2, store.aggregate)
}

type failingCache struct{}

func (failingCache) GetSummary(context.Context, string) (domain.Summary, bool, error) {
	return domain.Summary{}, false, errors.New("redis down")
}

func (failingCache) PutSummary(context.Context, string, domain.Summary) error {
	return errors.New("redis down")
}

func (failingCache) DropSummaries(context.Context, string) error {
	return errors.New("redis down")
}

func TestService_SummaryCacheFailureIsNotFatal(t *testing.T) {
	svc, _ := setupTestService(t, WithSummaryCache(failingCache{}))
	ctx := context.Background()

	task := create(t, svc, "Resilient", "2024-03-15")
	_, err := svc.Toggle(ctx, task.ID)
	require.NoError(t, err)

	summary, err := svc.WeeklySummary(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{Completed: 1}, summary)
}
