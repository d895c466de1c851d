package planner

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// Pacing strategies
const (
	// PacingStrict fills every open block.
	PacingStrict Pacing = "strict"
	// PacingRelaxed stops assigning once the slot budget is spent.
	PacingRelaxed Pacing = "relaxed"
)

type Pacing string

func (p Pacing) Valid() bool {
	return p == PacingStrict || p == PacingRelaxed
}

// DailyBlock is a timetable slot confirmed open for the target week.
type DailyBlock struct {
	Day       int  `json:"day"`
	SlotID    int  `json:"slot_id"`
	StartMin  int  `json:"start_min"`
	EndMin    int  `json:"end_min"`
	SubjectID *int `json:"subject_id"`
}

// WorkItem is an activity waiting to be scheduled.
type WorkItem struct {
	ID          int
	MilestoneID int
	SubjectID   int
	CompletedAt *time.Time
}

func (wi WorkItem) Pending() bool { return wi.CompletedAt == nil }

// Placement locates a ScheduleItem in the week.
type Placement struct {
	Day    int `json:"day"`
	SlotID int `json:"slot_id"`
}

func (p Placement) At() Placement { return p }

// ScheduleItem is either an Assignment or a Buffer.
type ScheduleItem interface {
	At() Placement
	isScheduleItem()
}

// Assignment binds a work item to a block.
type Assignment struct {
	Placement
	ActivityID int `json:"activity_id"`
}

// Buffer reserves a block as slack time.
type Buffer struct {
	Placement
}

func (Assignment) isScheduleItem() {}
func (Buffer) isScheduleItem()     {}

// ActivityID returns the activity bound by `item`, if any.
func ActivityID(item ScheduleItem) (int, bool) {
	if a, ok := item.(Assignment); ok {
		return a.ActivityID, true
	}
	return 0, false
}

// Result is the output of one generation run.
type Result struct {
	Items []ScheduleItem
	// Evicted holds the assignments displaced by buffer reservation.
	Evicted []Assignment
}

func (r Result) Assignments() []Assignment {
	res := make([]Assignment, 0, len(r.Items))
	for _, item := range r.Items {
		if a, ok := item.(Assignment); ok {
			res = append(res, a)
		}
	}
	return res
}

func (r Result) Buffers() []Buffer {
	res := make([]Buffer, 0, len(r.Items))
	for _, item := range r.Items {
		if b, ok := item.(Buffer); ok {
			res = append(res, b)
		}
	}
	return res
}

// Plan is a persisted weekly schedule.
type Plan struct {
	ID             uuid.UUID  `json:"id"`
	WeekStart      time.Time  `json:"week_start"`
	Pacing         Pacing     `json:"pacing_strategy"`
	PreserveBuffer bool       `json:"preserve_buffer"`
	GeneratedAt    time.Time  `json:"generated_at"`
	Items          []PlanItem `json:"items"`
	Evicted        int        `json:"evicted,omitempty"`
}

// PlanItem is a persisted ScheduleItem joined with its slot & activity details.
type PlanItem struct {
	Day           int    `json:"day"`
	SlotID        int    `json:"slot_id"`
	StartMin      int    `json:"start_min"`
	EndMin        int    `json:"end_min"`
	SubjectID     *int   `json:"subject_id"`
	SubjectName   string `json:"subject_name,omitempty"`
	ActivityID    *int   `json:"activity_id"`
	ActivityTitle string `json:"activity_title,omitempty"`
	ActivityNotes string `json:"activity_notes,omitempty"`
}

func (pi PlanItem) IsBuffer() bool { return pi.ActivityID == nil }

// GenerateRequest holds the options of a generation run.
// Zero Pacing and nil PreserveBuffer fall back to the configured defaults.
type GenerateRequest struct {
	WeekStart      time.Time
	Pacing         Pacing
	PreserveBuffer *bool
	// Notify receives the plan summary when notifications are enabled.
	Notify *mail.Address
}
