// Package task holds the task entity shared by the server modules and the
// client.
package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/mdadnanhusaain/ToDo-List/domain/datekey"
)

// Priority ranks a task within its day.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status is the completion state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Toggled returns the opposite status.
func (s Status) Toggled() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

// Task is a dated to-do item.
type Task struct {
	ID          string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	TitleFold   string       `gorm:"type:varchar(255);index" json:"-"`
	DescFold    string       `gorm:"column:description_fold;type:text" json:"-"`
	Date        datekey.Date `gorm:"type:varchar(10);not null;index" json:"date"`
	StartTime   string       `gorm:"type:varchar(16)" json:"startTime"`
	EndTime     string       `gorm:"type:varchar(16)" json:"endTime"`
	Priority    Priority     `gorm:"type:varchar(10);not null;default:medium" json:"priority"`
	Status      Status       `gorm:"type:varchar(10);not null;default:pending;index" json:"status"`
	CreatedAt   time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TableName specifies the table name for GORM.
func (Task) TableName() string {
	return "tasks"
}

// Fold lowercases s with full Unicode case mapping. SQLite's LOWER and LIKE
// only fold ASCII, so search runs against text folded here.
func Fold(s string) string {
	return strings.ToLower(s)
}

// RefreshFold recomputes the folded copies of Title and Description.
func (t *Task) RefreshFold() {
	t.TitleFold = Fold(t.Title)
	t.DescFold = Fold(t.Description)
}

// Validate checks the fields every stored task must satisfy.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: priority must be low, medium or high", ErrValidation)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: status must be pending or completed", ErrValidation)
	}
	return nil
}

// Summary counts the tasks of one week by status.
type Summary struct {
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// Total returns Completed + Pending.
func (s Summary) Total() int {
	return s.Completed + s.Pending
}
