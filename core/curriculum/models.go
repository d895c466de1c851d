package curriculum

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mwalimu/core"
)

type Subject struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Milestone is a logical teaching unit of a Subject, optionally due by TargetDate.
type Milestone struct {
	ID          int        `json:"id"`
	SubjectID   int        `json:"subject_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TargetDate  *time.Time `json:"target_date"` // midnight UTC
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Activity is a unit of teaching content of a Milestone.
// It is pending (schedulable) until CompletedAt is set.
type Activity struct {
	ID           int        `json:"id"`
	MilestoneID  int        `json:"milestone_id"`
	SubjectID    int        `json:"subject_id"` // joined from the milestone
	Title        string     `json:"title"`
	Notes        string     `json:"notes"`
	DurationMins int        `json:"duration_mins"`
	OrderIndex   int        `json:"order_index"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (a Activity) Pending() bool { return a.CompletedAt == nil }

// MilestoneProgress summarizes the completion of a Milestone's activities.
type MilestoneProgress struct {
	MilestoneID int        `json:"milestone_id"`
	SubjectID   int        `json:"subject_id"`
	TargetDate  *time.Time `json:"target_date"`
	Total       int        `json:"total"`
	Completed   int        `json:"completed"`
}

func (mp MilestoneProgress) Pending() int { return mp.Total - mp.Completed }

// NewSubject contains information needed to create or rename a Subject.
type NewSubject struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// NewMilestone contains information needed to create a Milestone.
type NewMilestone struct {
	SubjectID   int    `json:"subject_id" validate:"required,min=1"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	TargetDate  string `json:"target_date" validate:"omitempty,date"`
}

func (nm *NewMilestone) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.TargetDate = core.CleanString(nm.TargetDate)
	return validate.Struct(nm)
}

// UpdateMilestone defines what information may be provided to modify an existing Milestone.
// An empty TargetDate keeps the current one; ClearTargetDate removes it.
type UpdateMilestone struct {
	Title           string  `json:"title" validate:"max=200"`
	Description     *string `json:"description"`
	TargetDate      string  `json:"target_date" validate:"omitempty,date"`
	ClearTargetDate bool    `json:"clear_target_date"`
}

func (um *UpdateMilestone) Validate(validate *validator.Validate) error {
	um.Title = core.CleanString(um.Title)
	um.TargetDate = core.CleanString(um.TargetDate)
	if um.Description != nil {
		desc := core.CleanString(*um.Description)
		um.Description = &desc
	}
	return validate.Struct(um)
}

// NewActivity contains information needed to create an Activity.
type NewActivity struct {
	MilestoneID  int    `json:"milestone_id" validate:"required,min=1"`
	Title        string `json:"title" validate:"required,max=200"`
	Notes        string `json:"notes"`
	DurationMins int    `json:"duration_mins" validate:"min=0,max=1440"`
	OrderIndex   int    `json:"order_index" validate:"min=0"`
}

func (na *NewActivity) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Notes = core.CleanString(na.Notes)
	return validate.Struct(na)
}

// UpdateActivity defines what information may be provided to modify an existing Activity.
type UpdateActivity struct {
	MilestoneID  *int    `json:"milestone_id" validate:"omitempty,min=1"`
	Title        string  `json:"title" validate:"max=200"`
	Notes        *string `json:"notes"`
	DurationMins *int    `json:"duration_mins" validate:"omitempty,min=0,max=1440"`
	OrderIndex   *int    `json:"order_index" validate:"omitempty,min=0"`
}

func (ua *UpdateActivity) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	if ua.Notes != nil {
		notes := core.CleanString(*ua.Notes)
		ua.Notes = &notes
	}
	return validate.Struct(ua)
}

// ActivityFilter applies AND operation on its set fields.
type ActivityFilter struct {
	SubjectID   int   `query:"subject_id"`
	MilestoneID int   `query:"milestone_id"`
	Pending     *bool `query:"pending"`
}

// Match reports whether `a` satisfies the filter.
func (af ActivityFilter) Match(a Activity) bool {
	if af.SubjectID != 0 && a.SubjectID != af.SubjectID {
		return false
	}
	if af.MilestoneID != 0 && a.MilestoneID != af.MilestoneID {
		return false
	}
	if af.Pending != nil && a.Pending() != *af.Pending {
		return false
	}
	return true
}
