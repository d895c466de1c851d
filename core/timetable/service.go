package timetable

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
)

var (
	// errors
	ErrSlotNotFound        = core.NewNotFoundError("timetable slot not found")
	ErrEventNotFound       = core.NewNotFoundError("calendar event not found")
	ErrUnavailableNotFound = core.NewNotFoundError("unavailable block not found")
	ErrHolidayNotFound     = core.NewNotFoundError("holiday not found")
	ErrSlotOverlaps        = errors.New("overlaps another slot of the same day")
	ErrHolidayExists       = errors.New("a holiday already exists on this date")
)

type (
	Repository interface {
		CreateSlot(ctx context.Context, slot Slot) (Slot, error)
		// QuerySlots returns every slot ordered by day, start then ID.
		QuerySlots(ctx context.Context) ([]Slot, error)
		GetSlot(ctx context.Context, id int) (Slot, error)
		UpdateSlot(ctx context.Context, slot Slot) (Slot, error)
		DeleteSlot(ctx context.Context, id int) error

		CreateEvent(ctx context.Context, ev Event) (Event, error)
		// QueryEvents returns the events intersecting the range, ordered by start.
		QueryEvents(ctx context.Context, dr core.DateRange) ([]Event, error)
		DeleteEvent(ctx context.Context, id int) error

		CreateUnavailableBlock(ctx context.Context, ub UnavailableBlock) (UnavailableBlock, error)
		QueryUnavailableBlocks(ctx context.Context, dr core.DateRange) ([]UnavailableBlock, error)
		DeleteUnavailableBlock(ctx context.Context, id int) error

		// CreateHoliday returns ErrHolidayExists if the date is already a holiday.
		CreateHoliday(ctx context.Context, h Holiday) (Holiday, error)
		QueryHolidays(ctx context.Context, dr core.DateRange) ([]Holiday, error)
		DeleteHoliday(ctx context.Context, id int) error
	}

	// SubjectChecker is the part of curriculum.Service used to validate slot affinities.
	SubjectChecker interface {
		SubjectExists(ctx context.Context, id int) (bool, error)
	}

	Service struct {
		repo     Repository
		subjects SubjectChecker
		logger   core.Logger
	}
)

func NewService(repo Repository, subjects SubjectChecker, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(subjects, "subjects"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, subjects: subjects, logger: logger}
}

// Slots

func (svc *Service) checkSlot(ctx context.Context, slot Slot) error {
	if slot.SubjectID != nil {
		ok, err := svc.subjects.SubjectExists(ctx, *slot.SubjectID)
		if err != nil {
			return errors.Wrap(err, "checking subject")
		}
		if !ok {
			return core.NewFieldError("subject_id", "subject not found")
		}
	}

	slots, err := svc.repo.QuerySlots(ctx)
	if err != nil {
		return errors.Wrap(err, "querying slots")
	}
	for _, s := range slots {
		if s.ID != slot.ID && s.Overlaps(slot) {
			return core.NewFieldError("start_min", ErrSlotOverlaps.Error())
		}
	}
	return nil
}

func (svc *Service) CreateSlot(ctx context.Context, ns NewSlot) (Slot, error) {
	slot := ns.slot()
	if err := svc.checkSlot(ctx, slot); err != nil {
		return Slot{}, err
	}
	return svc.repo.CreateSlot(ctx, slot)
}

func (svc *Service) QuerySlots(ctx context.Context) ([]Slot, error) {
	return svc.repo.QuerySlots(ctx)
}

func (svc *Service) GetSlot(ctx context.Context, id int) (Slot, error) {
	return svc.repo.GetSlot(ctx, id)
}

// UpdateSlot replaces the slot's day, times and subject.
func (svc *Service) UpdateSlot(ctx context.Context, id int, ns NewSlot) (Slot, error) {
	if _, err := svc.repo.GetSlot(ctx, id); err != nil {
		return Slot{}, err
	}
	slot := ns.slot()
	slot.ID = id
	if err := svc.checkSlot(ctx, slot); err != nil {
		return Slot{}, err
	}
	return svc.repo.UpdateSlot(ctx, slot)
}

func (svc *Service) DeleteSlot(ctx context.Context, id int) error {
	return svc.repo.DeleteSlot(ctx, id)
}

// Calendar

func (svc *Service) CreateEvent(ctx context.Context, ne NewEvent) (Event, error) {
	return svc.repo.CreateEvent(ctx, Event{
		Title:     ne.Title,
		EventType: ne.EventType,
		Start:     ne.Start.UTC(),
		End:       ne.End.UTC(),
		AllDay:    ne.AllDay,
	})
}

func (svc *Service) QueryEvents(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return svc.repo.QueryEvents(ctx, filter.Range())
}

func (svc *Service) DeleteEvent(ctx context.Context, id int) error {
	return svc.repo.DeleteEvent(ctx, id)
}

func (svc *Service) CreateUnavailableBlock(ctx context.Context, nb NewUnavailableBlock) (UnavailableBlock, error) {
	date, err := core.ParseDate(nb.Date)
	if err != nil {
		return UnavailableBlock{}, core.NewFieldError("date", err.Error())
	}
	return svc.repo.CreateUnavailableBlock(ctx, UnavailableBlock{
		Date:     date,
		StartMin: *nb.StartMin,
		EndMin:   *nb.EndMin,
		Reason:   nb.Reason,
	})
}

func (svc *Service) QueryUnavailableBlocks(ctx context.Context, filter QueryFilter) ([]UnavailableBlock, error) {
	return svc.repo.QueryUnavailableBlocks(ctx, filter.Range())
}

func (svc *Service) DeleteUnavailableBlock(ctx context.Context, id int) error {
	return svc.repo.DeleteUnavailableBlock(ctx, id)
}

func (svc *Service) CreateHoliday(ctx context.Context, nh NewHoliday) (Holiday, error) {
	date, err := core.ParseDate(nh.Date)
	if err != nil {
		return Holiday{}, core.NewFieldError("date", err.Error())
	}
	h, err := svc.repo.CreateHoliday(ctx, Holiday{Date: date, Name: nh.Name})
	if err == ErrHolidayExists {
		return Holiday{}, core.NewFieldError("date", err.Error())
	}
	return h, err
}

func (svc *Service) QueryHolidays(ctx context.Context, filter QueryFilter) ([]Holiday, error) {
	return svc.repo.QueryHolidays(ctx, filter.Range())
}

func (svc *Service) DeleteHoliday(ctx context.Context, id int) error {
	return svc.repo.DeleteHoliday(ctx, id)
}

// WeekState loads every slot and the calendar records of the [weekStart, weekStart+7d) range.
// `weekStart` must already be normalised to midnight UTC. Events are clipped to the range.
func (svc *Service) WeekState(ctx context.Context, weekStart time.Time) (WeekState, error) {
	dr := core.DateRange{From: weekStart, To: weekStart.AddDate(0, 0, 7)}
	ws := WeekState{Range: dr}

	var err error
	if ws.Slots, err = svc.repo.QuerySlots(ctx); err != nil {
		return WeekState{}, errors.Wrap(err, "querying slots")
	}
	if ws.Events, err = svc.repo.QueryEvents(ctx, dr); err != nil {
		return WeekState{}, errors.Wrap(err, "querying events")
	}
	for i, ev := range ws.Events {
		ws.Events[i] = ev.Clip(dr)
	}
	if ws.Unavailable, err = svc.repo.QueryUnavailableBlocks(ctx, dr); err != nil {
		return WeekState{}, errors.Wrap(err, "querying unavailable blocks")
	}
	if ws.Holidays, err = svc.repo.QueryHolidays(ctx, dr); err != nil {
		return WeekState{}, errors.Wrap(err, "querying holidays")
	}
	return ws, nil
}
