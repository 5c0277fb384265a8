package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mdadnanhusaain/ToDo-List/domain/datekey"
	domain "github.com/mdadnanhusaain/ToDo-List/domain/task"
	"gorm.io/gorm"
)

// Repository provides access to task storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the tasks table.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(&domain.Task{}); err != nil {
		return fmt.Errorf("%w: migrate tasks: %w", domain.ErrStore, err)
	}
	return r.backfillFold()
}

// backfillFold fills the folded search columns of rows written before
// they existed.
func (r *Repository) backfillFold() error {
	var stale []domain.Task
	err := r.db.
		Select("id, title, COALESCE(description, '') AS description").
		Where("title_fold IS NULL OR (title_fold = '' AND title <> '')").
		Find(&stale).Error
	if err != nil {
		return fmt.Errorf("%w: backfill search columns: %w", domain.ErrStore, err)
	}

	for i := range stale {
		t := &stale[i]
		t.RefreshFold()
		err := r.db.Model(&domain.Task{}).Where("id = ?", t.ID).UpdateColumns(map[string]any{
			"title_fold":       t.TitleFold,
			"description_fold": t.DescFold,
		}).Error
		if err != nil {
			return fmt.Errorf("%w: backfill search columns: %w", domain.ErrStore, err)
		}
	}
	return nil
}

// Create assigns an ID and creation time, then saves the task.
func (r *Repository) Create(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	now := time.Now()
	t.ID = uuid.New().String()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.RefreshFold()

	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("%w: create task: %w", domain.ErrStore, err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	return findByID(r.db.WithContext(ctx), id)
}

func findByID(db *gorm.DB, id string) (*domain.Task, error) {
	var t domain.Task
	if err := db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: find task: %w", domain.ErrStore, err)
	}
	return &t, nil
}

// Update replaces the fields present in patch and returns the stored record.
// The write and the read-back share one transaction.
func (r *Repository) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Task, error) {
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	cols := patch.Columns()
	cols["updated_at"] = time.Now()

	var updated *domain.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Task{}).Where("id = ?", id).Updates(cols)
		if err := result.Error; err != nil {
			return fmt.Errorf("%w: update task: %w", domain.ErrStore, err)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}

		t, err := findByID(tx, id)
		if err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Toggle flips the status in a single statement, so two concurrent toggles
// always land on the original status.
func (r *Repository) Toggle(ctx context.Context, id string) (*domain.Task, error) {
	var toggled *domain.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Task{}).Where("id = ?", id).Updates(map[string]any{
			"status": gorm.Expr(
				"CASE WHEN status = ? THEN ? ELSE ? END",
				domain.StatusCompleted, domain.StatusPending, domain.StatusCompleted,
			),
			"updated_at": time.Now(),
		})
		if err := result.Error; err != nil {
			return fmt.Errorf("%w: toggle task: %w", domain.ErrStore, err)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}

		t, err := findByID(tx, id)
		if err != nil {
			return err
		}
		toggled = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

// Delete removes a task permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("%w: delete task: %w", domain.ErrStore, err)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

// ListByDayRange returns the tasks dated within rng, oldest first.
func (r *Repository) ListByDayRange(ctx context.Context, rng datekey.Range) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", rng.From, rng.To).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list tasks by day: %w", domain.ErrStore, err)
	}
	return tasks, nil
}

// ListAll returns every task ordered by date.
func (r *Repository) ListAll(ctx context.Context) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	err := r.db.WithContext(ctx).
		Order("date ASC").
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list tasks: %w", domain.ErrStore, err)
	}
	return tasks, nil
}

// AggregateWeek counts the tasks dated within rng by status.
func (r *Repository) AggregateWeek(ctx context.Context, rng datekey.Range) (domain.Summary, error) {
	var rows []struct {
		Status domain.Status
		Count  int
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Select("status, COUNT(*) AS count").
		Where("date BETWEEN ? AND ?", rng.From, rng.To).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: aggregate week: %w", domain.ErrStore, err)
	}

	var summary domain.Summary
	for _, row := range rows {
		switch row.Status {
		case domain.StatusCompleted:
			summary.Completed = row.Count
		case domain.StatusPending:
			summary.Pending = row.Count
		}
	}
	return summary, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches q as a literal, case-insensitive substring of the title or
// description. Matching runs against the folded columns so that non-ASCII
// letters compare without case. An empty q matches nothing.
func (r *Repository) Search(ctx context.Context, q string) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	if q == "" {
		return tasks, nil
	}

	pattern := "%" + likeEscaper.Replace(domain.Fold(q)) + "%"
	err := r.db.WithContext(ctx).
		Where(`title_fold LIKE ? ESCAPE '\' OR description_fold LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("date ASC").
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("%w: search tasks: %w", domain.ErrStore, err)
	}
	return tasks, nil
}
