package task

import (
	"fmt"
	"strings"

	"github.com/mdadnanhusaain/ToDo-List/domain/datekey"
)

// Patch lists the fields an update replaces. Nil fields are left alone.
type Patch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Date        *datekey.Date `json:"date,omitempty"`
	StartTime   *string       `json:"startTime,omitempty"`
	EndTime     *string       `json:"endTime,omitempty"`
	Priority    *Priority     `json:"priority,omitempty"`
	Status      *Status       `json:"status,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Date == nil &&
		p.StartTime == nil && p.EndTime == nil && p.Priority == nil && p.Status == nil
}

// Validate applies the stored-task rules to the supplied fields only.
func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title cannot be blank", ErrValidation)
	}
	if p.Date != nil && p.Date.IsZero() {
		return fmt.Errorf("%w: date cannot be empty", ErrValidation)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: priority must be low, medium or high", ErrValidation)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: status must be pending or completed", ErrValidation)
	}
	return nil
}

// Columns maps the supplied fields to their column names.
func (p Patch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		cols["title"] = title
		cols["title_fold"] = Fold(title)
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		cols["description"] = desc
		cols["description_fold"] = Fold(desc)
	}
	if p.Date != nil {
		cols["date"] = *p.Date
	}
	if p.StartTime != nil {
		cols["start_time"] = strings.TrimSpace(*p.StartTime)
	}
	if p.EndTime != nil {
		cols["end_time"] = strings.TrimSpace(*p.EndTime)
	}
	if p.Priority != nil {
		cols["priority"] = *p.Priority
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	return cols
}
