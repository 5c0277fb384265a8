package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mdadnanhusaain/ToDo-List/domain/datekey"
	domain "github.com/mdadnanhusaain/ToDo-List/domain/task"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is how long search input must be quiet before a query runs.
const DefaultDebounce = 500 * time.Millisecond

// ErrBusy is returned when a change is submitted while another is in flight.
var ErrBusy = errors.New("another change is in progress")

// View is the state shown for one day. Date is the day Tasks and Summary
// were fetched for.
type View struct {
	Date    datekey.Date
	Tasks   []domain.Task
	Summary domain.Summary
}

// SearchResult is the outcome of the latest search.
type SearchResult struct {
	Query string
	Tasks []domain.Task
	Err   error
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLocation sets the zone that decides which day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) { c.loc = loc }
}

// WithDebounce sets the search quiet period.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// Controller owns the selected date, the displayed tasks and summary, and
// the search box. Every successful change is followed by a refresh of both
// the day and the week.
type Controller struct {
	api      API
	settings SettingsStore
	now      func() time.Time
	loc      *time.Location
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	selected   datekey.Date
	shown      datekey.Date
	tasks      []domain.Task
	summary    domain.Summary
	refreshSeq uint64
	busy       bool
	onChange   func(View)

	searchSeq   uint64
	searchTimer *time.Timer
	search      SearchResult
	onSearch    func(SearchResult)
}

// NewController returns a controller whose selected date is today.
func NewController(api API, settings SettingsStore, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		settings: settings,
		now:      time.Now,
		loc:      time.Local,
		debounce: DefaultDebounce,
		tasks:    []domain.Task{},
		search:   SearchResult{Tasks: []domain.Task{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.settings == nil {
		c.settings = &MemorySettings{}
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.selected = datekey.FromTime(c.now(), c.loc)
	c.shown = c.selected
	return c
}

// Close stops any pending search.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.searchTimer != nil {
		c.searchTimer.Stop()
	}
	c.searchSeq++
	c.mu.Unlock()
	c.cancel()
}

// OnChange registers fn to run after every applied refresh.
func (c *Controller) OnChange(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// OnSearch registers fn to run whenever a search result is applied.
func (c *Controller) OnSearch(fn func(SearchResult)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSearch = fn
}

// SelectedDate returns the day last asked for. It differs from View().Date
// while that day's refresh is pending or after it failed.
func (c *Controller) SelectedDate() datekey.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// View returns a copy of the displayed state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Busy reports whether a change is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// SearchResults returns the latest applied search result.
func (c *Controller) SearchResults() SearchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.search
	r.Tasks = append([]domain.Task{}, r.Tasks...)
	return r
}

// SelectDate shows d and fetches its tasks and week.
func (c *Controller) SelectDate(ctx context.Context, d datekey.Date) error {
	if d.IsZero() {
		return datekey.ErrInvalidDate
	}
	c.mu.Lock()
	c.selected = d
	seq := c.nextRefreshLocked()
	c.mu.Unlock()
	return c.refresh(ctx, seq, d)
}

// SelectToday shows the current day.
func (c *Controller) SelectToday(ctx context.Context) error {
	return c.SelectDate(ctx, datekey.FromTime(c.now(), c.loc))
}

// Refresh fetches the selected day's tasks and its weekly summary. The
// result is applied only if no newer refresh was started meanwhile; on error
// the displayed state is left untouched.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	seq := c.nextRefreshLocked()
	day := c.selected
	c.mu.Unlock()
	return c.refresh(ctx, seq, day)
}

func (c *Controller) nextRefreshLocked() uint64 {
	c.refreshSeq++
	return c.refreshSeq
}

// refresh fetches day and applies it together with day itself, so the
// shown date always matches the shown tasks.
func (c *Controller) refresh(ctx context.Context, seq uint64, day datekey.Date) error {
	date := day.String()
	var (
		tasks   []domain.Task
		summary domain.Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = c.api.ByDate(gctx, date)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = c.api.WeeklySummary(gctx, date)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}

	c.mu.Lock()
	if seq != c.refreshSeq {
		c.mu.Unlock()
		return nil
	}
	c.shown = day
	c.tasks = tasks
	c.summary = summary
	view := c.viewLocked()
	notify := c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify(view)
	}
	return nil
}

// Create adds a task.
func (c *Controller) Create(ctx context.Context, in NewTask) (*domain.Task, error) {
	var created *domain.Task
	err := c.mutate(ctx, func(ctx context.Context) error {
		t, err := c.api.Create(ctx, in)
		created = t
		return err
	})
	return created, err
}

// Update changes the supplied fields of a task.
func (c *Controller) Update(ctx context.Context, id string, changes TaskChanges) (*domain.Task, error) {
	var updated *domain.Task
	err := c.mutate(ctx, func(ctx context.Context) error {
		t, err := c.api.Update(ctx, id, changes)
		updated = t
		return err
	})
	return updated, err
}

// Toggle flips a task between pending and completed.
func (c *Controller) Toggle(ctx context.Context, id string) (*domain.Task, error) {
	var toggled *domain.Task
	err := c.mutate(ctx, func(ctx context.Context) error {
		t, err := c.api.Toggle(ctx, id)
		toggled = t
		return err
	})
	return toggled, err
}

// Delete removes a task.
func (c *Controller) Delete(ctx context.Context, id string) error {
	return c.mutate(ctx, func(ctx context.Context) error {
		return c.api.Delete(ctx, id)
	})
}

// mutate runs call with the busy flag set and refreshes once the server has
// acknowledged it. A failed call leaves the displayed state as it was.
func (c *Controller) mutate(ctx context.Context, call func(context.Context) error) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	if err := call(ctx); err != nil {
		return err
	}
	if err := c.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh after change: %w", err)
	}
	return nil
}

// Search schedules q to run once input has been quiet for the debounce
// period. A newer call supersedes any earlier query, including one already
// in flight. A blank query clears the results without a request.
func (c *Controller) Search(q string) {
	q = strings.TrimSpace(q)

	c.mu.Lock()
	c.searchSeq++
	seq := c.searchSeq
	if c.searchTimer != nil {
		c.searchTimer.Stop()
		c.searchTimer = nil
	}

	if q == "" {
		c.search = SearchResult{Tasks: []domain.Task{}}
		result := c.search
		notify := c.onSearch
		c.mu.Unlock()
		if notify != nil {
			notify(result)
		}
		return
	}

	c.searchTimer = time.AfterFunc(c.debounce, func() {
		c.runSearch(seq, q)
	})
	c.mu.Unlock()
}

func (c *Controller) runSearch(seq uint64, q string) {
	if !c.latestSearch(seq) {
		return
	}

	tasks, err := c.api.Search(c.ctx, q)
	if tasks == nil {
		tasks = []domain.Task{}
	}

	c.mu.Lock()
	if seq != c.searchSeq {
		c.mu.Unlock()
		return
	}
	c.search = SearchResult{Query: q, Tasks: tasks, Err: err}
	result := c.search
	notify := c.onSearch
	c.mu.Unlock()

	if notify != nil {
		notify(result)
	}
}

func (c *Controller) latestSearch(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.searchSeq
}

// ShouldShowOnboarding reports whether the onboarding screen has not been
// dismissed yet.
func (c *Controller) ShouldShowOnboarding() (bool, error) {
	s, err := c.settings.Load()
	if err != nil {
		return false, err
	}
	return !s.OnboardingSeen, nil
}

// CompleteOnboarding records that onboarding was dismissed.
func (c *Controller) CompleteOnboarding() error {
	s, err := c.settings.Load()
	if err != nil {
		return err
	}
	s.OnboardingSeen = true
	return c.settings.Save(s)
}

func (c *Controller) viewLocked() View {
	return View{
		Date:    c.shown,
		Tasks:   append([]domain.Task{}, c.tasks...),
		Summary: c.summary,
	}
}
