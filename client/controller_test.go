package client

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/mdadnanhusaain/ToDo-List/domain/datekey"
	domain "github.com/mdadnanhusaain/ToDo-List/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory API. Hooks let tests stall or fail calls.
type fakeAPI struct {
	mu       sync.Mutex
	tasks    map[string]*domain.Task
	nextID   int
	calls    []string
	byDateFn func(date string) ([]domain.Task, error)
	searchFn func(q string) ([]domain.Task, error)
	failNext error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tasks: map[string]*domain.Task{}}
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	err := f.failNext
	f.failNext = nil
	return err
}

// note records a call without consuming failNext.
func (f *fakeAPI) note(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeAPI) list(match func(domain.Task) bool) []domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Task{}
	for _, t := range f.tasks {
		if match(*t) {
			out = append(out, *t)
		}
	}
	return out
}

func (f *fakeAPI) Today(context.Context) ([]domain.Task, error) {
	f.note("today")
	return f.list(func(domain.Task) bool { return true }), nil
}

func (f *fakeAPI) ByDate(_ context.Context, date string) ([]domain.Task, error) {
	if err := f.record("by-date"); err != nil {
		return nil, err
	}
	if f.byDateFn != nil {
		return f.byDateFn(date)
	}
	return f.list(func(t domain.Task) bool { return t.Date.String() == date }), nil
}

func (f *fakeAPI) WeeklySummary(_ context.Context, date string) (domain.Summary, error) {
	f.note("summary")
	d := datekey.MustParse(date)
	week := datekey.WeekRange(d, time.Monday, time.UTC)
	var s domain.Summary
	for _, t := range f.list(func(t domain.Task) bool { return week.Contains(t.Date) }) {
		if t.Status == domain.StatusCompleted {
			s.Completed++
		} else {
			s.Pending++
		}
	}
	return s, nil
}

func (f *fakeAPI) All(context.Context) ([]domain.Task, error) {
	f.note("all")
	return f.list(func(domain.Task) bool { return true }), nil
}

func (f *fakeAPI) Search(_ context.Context, q string) ([]domain.Task, error) {
	f.note("search")
	if f.searchFn != nil {
		return f.searchFn(q)
	}
	return f.list(func(t domain.Task) bool { return t.Title == q }), nil
}

func (f *fakeAPI) Create(_ context.Context, in NewTask) (*domain.Task, error) {
	if err := f.record("create"); err != nil {
		return nil, err
	}
	d, err := datekey.Parse(in.Date)
	if err != nil {
		return nil, &RequestError{Status: 400, Message: "Date must be YYYY-MM-DD"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := &domain.Task{ID: string(rune('a' + f.nextID - 1)), Title: in.Title, Date: d, Priority: domain.PriorityMedium, Status: domain.StatusPending}
	f.tasks[t.ID] = t
	out := *t
	return &out, nil
}

func (f *fakeAPI) Update(_ context.Context, id string, changes TaskChanges) (*domain.Task, error) {
	if err := f.record("update"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, &RequestError{Status: 404, Message: "Task not found"}
	}
	if changes.Title != nil {
		t.Title = *changes.Title
	}
	out := *t
	return &out, nil
}

func (f *fakeAPI) Delete(_ context.Context, id string) error {
	if err := f.record("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return &RequestError{Status: 404, Message: "Task not found"}
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeAPI) Toggle(_ context.Context, id string) (*domain.Task, error) {
	if err := f.record("toggle"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, &RequestError{Status: 404, Message: "Task not found"}
	}
	t.Status = t.Status.Toggled()
	out := *t
	return &out, nil
}

var march15 = time.Date(2024, time.March, 15, 22, 30, 0, 0, time.UTC)

func newTestController(api API, opts ...Option) *Controller {
	opts = append([]Option{
		WithClock(func() time.Time { return march15 }),
		WithLocation(time.UTC),
		WithDebounce(20 * time.Millisecond),
	}, opts...)
	return NewController(api, &MemorySettings{}, opts...)
}

func TestController_SelectedDateDefaultsToToday(t *testing.T) {
	c := newTestController(newFakeAPI())
	assert.Equal(t, "2024-03-15", c.SelectedDate().String())

	// 22:30 UTC is already the next day in Tokyo.
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	c = newTestController(newFakeAPI(), WithLocation(tokyo))
	assert.Equal(t, "2024-03-16", c.SelectedDate().String())
}

func TestController_SelectDateRefreshes(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api)
	ctx := context.Background()

	_, err := api.Create(ctx, NewTask{Title: "Pay rent", Date: "2024-03-15"})
	require.NoError(t, err)
	_, err = api.Create(ctx, NewTask{Title: "Dentist", Date: "2024-03-18"})
	require.NoError(t, err)

	var seen []View
	c.OnChange(func(v View) { seen = append(seen, v) })

	require.NoError(t, c.SelectDate(ctx, datekey.MustParse("2024-03-18")))
	view := c.View()
	assert.Equal(t, "2024-03-18", view.Date.String())
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, "Dentist", view.Tasks[0].Title)
	assert.Equal(t, domain.Summary{Pending: 1}, view.Summary)
	assert.Len(t, seen, 1)

	assert.ErrorIs(t, c.SelectDate(ctx, datekey.Date{}), datekey.ErrInvalidDate)
}

func TestController_MutationRefetchesDayAndWeek(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api)
	ctx := context.Background()

	created, err := c.Create(ctx, NewTask{Title: "Pay rent", Date: "2024-03-15"})
	require.NoError(t, err)
	assert.Equal(t, 1, api.callCount("by-date"))
	assert.Equal(t, 1, api.callCount("summary"))
	assert.Len(t, c.View().Tasks, 1)

	_, err = c.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{Completed: 1}, c.View().Summary)

	title := "Pay March rent"
	_, err = c.Update(ctx, created.ID, TaskChanges{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, c.View().Tasks[0].Title)

	require.NoError(t, c.Delete(ctx, created.ID))
	assert.Empty(t, c.View().Tasks)
	assert.Equal(t, domain.Summary{}, c.View().Summary)
	assert.Equal(t, 4, api.callCount("by-date"))
	assert.Equal(t, 4, api.callCount("summary"))
	assert.False(t, c.Busy())
}

func TestController_FailedMutationKeepsState(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api)
	ctx := context.Background()

	_, err := c.Create(ctx, NewTask{Title: "Pay rent", Date: "2024-03-15"})
	require.NoError(t, err)
	before := c.View()
	refreshes := api.callCount("by-date")

	err = c.Delete(ctx, "missing")
	require.Error(t, err)
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.True(t, reqErr.NotFound())

	api.failNext = &RequestError{Message: "connection refused"}
	_, err = c.Create(ctx, NewTask{Title: "Dentist", Date: "2024-03-15"})
	assert.ErrorIs(t, err, ErrRequestFailed)

	assert.Equal(t, refreshes, api.callCount("by-date"), "failed changes must not refetch")
	assert.Equal(t, before, c.View())
	assert.False(t, c.Busy())
}

func TestController_FailedRefreshKeepsState(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api)
	ctx := context.Background()

	_, err := c.Create(ctx, NewTask{Title: "Pay rent", Date: "2024-03-15"})
	require.NoError(t, err)
	before := c.View()

	api.failNext = &RequestError{Status: 500, Message: "Internal server error"}
	assert.ErrorIs(t, c.Refresh(ctx), ErrRequestFailed)
	assert.Equal(t, before, c.View())
}

func TestController_FailedSelectDateKeepsShownDay(t *testing.T) {
	api := newFakeAPI()
	ctx := context.Background()
	_, err := api.Create(ctx, NewTask{Title: "Pay rent", Date: "2024-03-15"})
	require.NoError(t, err)
	api.byDateFn = func(date string) ([]domain.Task, error) {
		if date == "2024-03-16" {
			return nil, &RequestError{Status: 500, Message: "Internal server error"}
		}
		return api.list(func(t domain.Task) bool { return t.Date.String() == date }), nil
	}
	c := newTestController(api)

	require.NoError(t, c.SelectDate(ctx, datekey.MustParse("2024-03-15")))
	before := c.View()
	require.Len(t, before.Tasks, 1)

	err = c.SelectDate(ctx, datekey.MustParse("2024-03-16"))
	assert.ErrorIs(t, err, ErrRequestFailed)

	view := c.View()
	assert.Equal(t, "2024-03-15", view.Date.String())
	assert.Equal(t, before, view)
	for _, task := range view.Tasks {
		assert.Equal(t, view.Date, task.Date)
	}
	assert.Equal(t, "2024-03-16", c.SelectedDate().String())
}

func TestController_OlderDayNeverShownUnderNewerDay(t *testing.T) {
	api := newFakeAPI()
	ctx := context.Background()
	_, err := api.Create(ctx, NewTask{Title: "Pay rent", Date: "2024-03-15"})
	require.NoError(t, err)
	_, err = api.Create(ctx, NewTask{Title: "Groceries", Date: "2024-03-16"})
	require.NoError(t, err)

	slowEntered := make(chan struct{})
	releaseSlow := make(chan struct{})
	api.byDateFn = func(date string) ([]domain.Task, error) {
		if date == "2024-03-15" {
			close(slowEntered)
			<-releaseSlow
		}
		return api.list(func(t domain.Task) bool { return t.Date.String() == date }), nil
	}
	c := newTestController(api)

	slowDone := make(chan error, 1)
	go func() { slowDone <- c.Refresh(ctx) }()
	<-slowEntered

	require.NoError(t, c.SelectDate(ctx, datekey.MustParse("2024-03-16")))
	close(releaseSlow)
	require.NoError(t, <-slowDone)

	view := c.View()
	assert.Equal(t, "2024-03-16", view.Date.String())
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, "Groceries", view.Tasks[0].Title)
}

func TestController_BusyRejectsConcurrentChanges(t *testing.T) {
	api := newFakeAPI()
	release := make(chan struct{})
	entered := make(chan struct{})
	api.byDateFn = func(string) ([]domain.Task, error) {
		close(entered)
		<-release
		return []domain.Task{}, nil
	}
	c := newTestController(api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.Create(ctx, NewTask{Title: "Pay rent", Date: "2024-03-15"})
		done <- err
	}()

	<-entered
	assert.True(t, c.Busy())
	_, err := c.Create(ctx, NewTask{Title: "Dentist", Date: "2024-03-15"})
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())
	assert.Equal(t, 1, api.callCount("create"))
}

func TestController_StaleRefreshIsDiscarded(t *testing.T) {
	api := newFakeAPI()
	slowEntered := make(chan struct{})
	releaseSlow := make(chan struct{})
	var calls int
	var mu sync.Mutex
	api.byDateFn = func(date string) ([]domain.Task, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(slowEntered)
			<-releaseSlow
			return []domain.Task{{ID: "old", Title: "stale"}}, nil
		}
		return []domain.Task{{ID: "new", Title: "fresh"}}, nil
	}
	c := newTestController(api)
	ctx := context.Background()

	slowDone := make(chan error, 1)
	go func() { slowDone <- c.Refresh(ctx) }()
	<-slowEntered

	require.NoError(t, c.Refresh(ctx))
	close(releaseSlow)
	require.NoError(t, <-slowDone)

	tasks := c.View().Tasks
	require.Len(t, tasks, 1)
	assert.Equal(t, "fresh", tasks[0].Title)
}

func TestController_SearchDebounces(t *testing.T) {
	api := newFakeAPI()
	_, err := api.Create(context.Background(), NewTask{Title: "rent", Date: "2024-03-15"})
	require.NoError(t, err)
	c := newTestController(api)

	results := make(chan SearchResult, 4)
	c.OnSearch(func(r SearchResult) { results <- r })

	c.Search("r")
	c.Search("re")
	c.Search("ren")
	c.Search("rent")

	select {
	case r := <-results:
		assert.Equal(t, "rent", r.Query)
		assert.NoError(t, r.Err)
		assert.Len(t, r.Tasks, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("search never ran")
	}

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, api.callCount("search"))
	assert.Equal(t, "rent", c.SearchResults().Query)
}

func TestController_SupersededSearchResultIsDiscarded(t *testing.T) {
	api := newFakeAPI()
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	api.searchFn = func(q string) ([]domain.Task, error) {
		if q == "old" {
			close(firstEntered)
			<-releaseFirst
		}
		return []domain.Task{{ID: q, Title: q}}, nil
	}
	c := newTestController(api)

	results := make(chan SearchResult, 4)
	c.OnSearch(func(r SearchResult) { results <- r })

	c.Search("old")
	<-firstEntered
	c.Search("new")

	select {
	case r := <-results:
		assert.Equal(t, "new", r.Query)
	case <-time.After(2 * time.Second):
		t.Fatal("search never ran")
	}

	close(releaseFirst)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "new", c.SearchResults().Query)
	assert.Len(t, results, 0, "late result for the old query must not be applied")
}

func TestController_BlankSearchSkipsRequest(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api)

	var got []SearchResult
	c.OnSearch(func(r SearchResult) { got = append(got, r) })

	c.Search("rent")
	c.Search("   ")

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, api.callCount("search"))
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Tasks)
	assert.NotNil(t, c.SearchResults().Tasks)
}

func TestController_CloseCancelsPendingSearch(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api)

	c.Search("rent")
	c.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, api.callCount("search"))
}

func TestController_Onboarding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	store := FileSettings{Path: path}
	c := NewController(newFakeAPI(), store)

	show, err := c.ShouldShowOnboarding()
	require.NoError(t, err)
	assert.True(t, show)

	require.NoError(t, c.CompleteOnboarding())

	// A fresh controller over the same file sees the flag.
	c = NewController(newFakeAPI(), FileSettings{Path: path})
	show, err = c.ShouldShowOnboarding()
	require.NoError(t, err)
	assert.False(t, show)
}

func TestController_DefaultsToMemorySettings(t *testing.T) {
	c := NewController(newFakeAPI(), nil)

	show, err := c.ShouldShowOnboarding()
	require.NoError(t, err)
	assert.True(t, show)
	require.NoError(t, c.CompleteOnboarding())
	show, _ = c.ShouldShowOnboarding()
	assert.False(t, show)
}
