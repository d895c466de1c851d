package timetable

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mwalimu/core"
)

// Event types
const (
	EventAssembly = "assembly"
	EventPDDay    = "pd_day"
	EventTrip     = "trip"
	EventOther    = "other"
)

var EventTypes = []string{EventAssembly, EventPDDay, EventTrip, EventOther}

// Slot is a recurring weekly opening of the timetable.
type Slot struct {
	ID        int  `json:"id"`
	Day       int  `json:"day"` // Monday = 0
	StartMin  int  `json:"start_min"`
	EndMin    int  `json:"end_min"`
	SubjectID *int `json:"subject_id"`
}

// Overlaps reports whether both slots share some minutes of the same day.
func (s Slot) Overlaps(other Slot) bool {
	return s.Day == other.Day && s.StartMin < other.EndMin && other.StartMin < s.EndMin
}

// Event is anything that consumes wall-clock time (assemblies, PD days...).
type Event struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	EventType string    `json:"event_type"`
	Start     time.Time `json:"start"` // UTC
	End       time.Time `json:"end"`   // UTC
	AllDay    bool      `json:"all_day"`
}

// Clip bounds the event to `dr`.
func (ev Event) Clip(dr core.DateRange) Event {
	if ev.Start.Before(dr.From) {
		ev.Start = dr.From
	}
	if ev.End.After(dr.To) {
		ev.End = dr.To
	}
	return ev
}

// UnavailableBlock marks the teacher unavailable for part of a day.
type UnavailableBlock struct {
	ID       int       `json:"id"`
	Date     time.Time `json:"date"` // midnight UTC
	StartMin int       `json:"start_min"`
	EndMin   int       `json:"end_min"`
	Reason   string    `json:"reason"`
}

// Holiday is a whole day on which no slot may be used.
type Holiday struct {
	ID   int       `json:"id"`
	Date time.Time `json:"date"` // midnight UTC
	Name string    `json:"name"`
}

// WeekState is the timetable plus the calendar records scoped to one week.
type WeekState struct {
	Range       core.DateRange
	Slots       []Slot
	Events      []Event
	Unavailable []UnavailableBlock
	Holidays    []Holiday
}

// NewSlot contains information needed to create or replace a Slot.
type NewSlot struct {
	Day       *int `json:"day" validate:"required,weekday"`
	StartMin  *int `json:"start_min" validate:"required,daymin"`
	EndMin    *int `json:"end_min" validate:"required,daymin,gtfield=StartMin"`
	SubjectID *int `json:"subject_id" validate:"omitempty,min=1"`
}

func (ns *NewSlot) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

func (ns NewSlot) slot() Slot {
	slot := Slot{Day: *ns.Day, StartMin: *ns.StartMin, EndMin: *ns.EndMin}
	if ns.SubjectID != nil {
		id := *ns.SubjectID
		slot.SubjectID = &id
	}
	return slot
}

type NewEvent struct {
	Title     string    `json:"title" validate:"required,max=200"`
	EventType string    `json:"event_type" validate:"omitempty,oneof=assembly pd_day trip other"`
	Start     time.Time `json:"start" validate:"required"`
	End       time.Time `json:"end" validate:"required,gtefield=Start"`
	AllDay    bool      `json:"all_day"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	if ne.EventType == "" {
		ne.EventType = EventOther
	}
	ne.Start, ne.End = ne.Start.UTC(), ne.End.UTC()
	return validate.Struct(ne)
}

type NewUnavailableBlock struct {
	Date     string `json:"date" validate:"required,date"`
	StartMin *int   `json:"start_min" validate:"required,daymin"`
	EndMin   *int   `json:"end_min" validate:"required,daymin,gtfield=StartMin"`
	Reason   string `json:"reason" validate:"max=200"`
}

func (nb *NewUnavailableBlock) Validate(validate *validator.Validate) error {
	nb.Reason = core.CleanString(nb.Reason)
	return validate.Struct(nb)
}

type NewHoliday struct {
	Date string `json:"date" validate:"required,date"`
	Name string `json:"name" validate:"required,max=200"`
}

func (nh *NewHoliday) Validate(validate *validator.Validate) error {
	nh.Name = core.CleanString(nh.Name)
	return validate.Struct(nh)
}

// QueryFilter scopes calendar queries; zero values mean unbounded.
type QueryFilter struct {
	From time.Time `query:"from"`
	To   time.Time `query:"to"`
}

func (qf QueryFilter) Range() core.DateRange {
	dr := core.DateRange{From: qf.From.UTC(), To: qf.To.UTC()}
	if qf.To.IsZero() {
		dr.To = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return dr
}
