package boiledrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/timetable"
)

type timetableRepository struct {
	exec core.DBExecutor
}

var _ timetable.Repository = (*timetableRepository)(nil) // interface compliance check

func NewTimetableRepository(exec core.DBExecutor) *timetableRepository {
	return &timetableRepository{exec: exec}
}

// Slots

const slotColumns = `id, day, start_min, end_min, subject_id`

type slotRow struct {
	ID        int      `boil:"id"`
	Day       int      `boil:"day"`
	StartMin  int      `boil:"start_min"`
	EndMin    int      `boil:"end_min"`
	SubjectID null.Int `boil:"subject_id"`
}

func (r slotRow) unboil() timetable.Slot {
	return timetable.Slot{ID: r.ID, Day: r.Day, StartMin: r.StartMin, EndMin: r.EndMin, SubjectID: r.SubjectID.Ptr()}
}

func (repo timetableRepository) CreateSlot(ctx context.Context, slot timetable.Slot) (timetable.Slot, error) {
	var r slotRow
	q := `INSERT INTO timetable_slot (day, start_min, end_min, subject_id) VALUES ($1, $2, $3, $4) RETURNING ` + slotColumns
	if err := queries.Raw(q, slot.Day, slot.StartMin, slot.EndMin, null.IntFromPtr(slot.SubjectID)).Bind(ctx, repo.exec, &r); err != nil {
		return timetable.Slot{}, errors.Wrap(err, "inserting slot")
	}
	return r.unboil(), nil
}

func (repo timetableRepository) QuerySlots(ctx context.Context) ([]timetable.Slot, error) {
	var rows []slotRow
	q := `SELECT ` + slotColumns + ` FROM timetable_slot ORDER BY day, start_min, id`
	if err := queries.Raw(q).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying slots")
	}
	slots := make([]timetable.Slot, 0, len(rows))
	for _, r := range rows {
		slots = append(slots, r.unboil())
	}
	return slots, nil
}

func (repo timetableRepository) GetSlot(ctx context.Context, id int) (timetable.Slot, error) {
	var r slotRow
	q := `SELECT ` + slotColumns + ` FROM timetable_slot WHERE id = $1`
	if err := queries.Raw(q, id).Bind(ctx, repo.exec, &r); err != nil {
		return timetable.Slot{}, trapNoRowsErr(err, timetable.ErrSlotNotFound, "finding slot")
	}
	return r.unboil(), nil
}

func (repo timetableRepository) UpdateSlot(ctx context.Context, slot timetable.Slot) (timetable.Slot, error) {
	var r slotRow
	q := `UPDATE timetable_slot SET day = $2, start_min = $3, end_min = $4, subject_id = $5 WHERE id = $1 RETURNING ` + slotColumns
	err := queries.Raw(q, slot.ID, slot.Day, slot.StartMin, slot.EndMin, null.IntFromPtr(slot.SubjectID)).Bind(ctx, repo.exec, &r)
	if err != nil {
		return timetable.Slot{}, trapNoRowsErr(err, timetable.ErrSlotNotFound, "updating slot")
	}
	return r.unboil(), nil
}

func (repo timetableRepository) DeleteSlot(ctx context.Context, id int) error {
	res, err := queries.Raw(`DELETE FROM timetable_slot WHERE id = $1`, id).ExecContext(ctx, repo.exec)
	return checkAffected(res, err, timetable.ErrSlotNotFound, "deleting slot")
}

// Events

const eventColumns = `id, title, event_type, starts_at, ends_at, all_day`

type eventRow struct {
	ID        int       `boil:"id"`
	Title     string    `boil:"title"`
	EventType string    `boil:"event_type"`
	StartsAt  time.Time `boil:"starts_at"`
	EndsAt    time.Time `boil:"ends_at"`
	AllDay    bool      `boil:"all_day"`
}

func (r eventRow) unboil() timetable.Event {
	return timetable.Event{
		ID:        r.ID,
		Title:     r.Title,
		EventType: r.EventType,
		Start:     r.StartsAt.UTC(),
		End:       r.EndsAt.UTC(),
		AllDay:    r.AllDay,
	}
}

func (repo timetableRepository) CreateEvent(ctx context.Context, ev timetable.Event) (timetable.Event, error) {
	var r eventRow
	q := `INSERT INTO calendar_event (title, event_type, starts_at, ends_at, all_day) VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + eventColumns
	if err := queries.Raw(q, ev.Title, ev.EventType, ev.Start.UTC(), ev.End.UTC(), ev.AllDay).Bind(ctx, repo.exec, &r); err != nil {
		return timetable.Event{}, errors.Wrap(err, "inserting event")
	}
	return r.unboil(), nil
}

// QueryEvents matches core.DateRange.Overlaps: zero-length events overlap when they start in range.
func (repo timetableRepository) QueryEvents(ctx context.Context, dr core.DateRange) ([]timetable.Event, error) {
	var rows []eventRow
	q := `SELECT ` + eventColumns + ` FROM calendar_event
		WHERE starts_at < $2 AND (ends_at > $1 OR starts_at >= $1)
		ORDER BY starts_at, id`
	if err := queries.Raw(q, dr.From.UTC(), dr.To.UTC()).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	events := make([]timetable.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.unboil())
	}
	return events, nil
}

func (repo timetableRepository) DeleteEvent(ctx context.Context, id int) error {
	res, err := queries.Raw(`DELETE FROM calendar_event WHERE id = $1`, id).ExecContext(ctx, repo.exec)
	return checkAffected(res, err, timetable.ErrEventNotFound, "deleting event")
}

// Unavailable blocks

const unavailableColumns = `id, date, start_min, end_min, reason`

type unavailableRow struct {
	ID       int       `boil:"id"`
	Date     time.Time `boil:"date"`
	StartMin int       `boil:"start_min"`
	EndMin   int       `boil:"end_min"`
	Reason   string    `boil:"reason"`
}

func (r unavailableRow) unboil() timetable.UnavailableBlock {
	return timetable.UnavailableBlock{ID: r.ID, Date: r.Date.UTC(), StartMin: r.StartMin, EndMin: r.EndMin, Reason: r.Reason}
}

func (repo timetableRepository) CreateUnavailableBlock(ctx context.Context, ub timetable.UnavailableBlock) (timetable.UnavailableBlock, error) {
	var r unavailableRow
	q := `INSERT INTO unavailable_block (date, start_min, end_min, reason) VALUES ($1, $2, $3, $4) RETURNING ` + unavailableColumns
	if err := queries.Raw(q, ub.Date.UTC(), ub.StartMin, ub.EndMin, ub.Reason).Bind(ctx, repo.exec, &r); err != nil {
		return timetable.UnavailableBlock{}, errors.Wrap(err, "inserting unavailable block")
	}
	return r.unboil(), nil
}

func (repo timetableRepository) QueryUnavailableBlocks(ctx context.Context, dr core.DateRange) ([]timetable.UnavailableBlock, error) {
	var rows []unavailableRow
	q := `SELECT ` + unavailableColumns + ` FROM unavailable_block WHERE date >= $1 AND date < $2
		ORDER BY date, start_min, id`
	if err := queries.Raw(q, dr.From.UTC(), dr.To.UTC()).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying unavailable blocks")
	}
	blocks := make([]timetable.UnavailableBlock, 0, len(rows))
	for _, r := range rows {
		blocks = append(blocks, r.unboil())
	}
	return blocks, nil
}

func (repo timetableRepository) DeleteUnavailableBlock(ctx context.Context, id int) error {
	res, err := queries.Raw(`DELETE FROM unavailable_block WHERE id = $1`, id).ExecContext(ctx, repo.exec)
	return checkAffected(res, err, timetable.ErrUnavailableNotFound, "deleting unavailable block")
}

// Holidays

type holidayRow struct {
	ID   int       `boil:"id"`
	Date time.Time `boil:"date"`
	Name string    `boil:"name"`
}

func (r holidayRow) unboil() timetable.Holiday {
	return timetable.Holiday{ID: r.ID, Date: r.Date.UTC(), Name: r.Name}
}

func (repo timetableRepository) CreateHoliday(ctx context.Context, h timetable.Holiday) (timetable.Holiday, error) {
	var r holidayRow
	q := `INSERT INTO holiday (date, name) VALUES ($1, $2) RETURNING id, date, name`
	if err := queries.Raw(q, h.Date.UTC(), h.Name).Bind(ctx, repo.exec, &r); err != nil {
		if isCode(err, uniqueViolation) {
			return timetable.Holiday{}, timetable.ErrHolidayExists
		}
		return timetable.Holiday{}, errors.Wrap(err, "inserting holiday")
	}
	return r.unboil(), nil
}

func (repo timetableRepository) QueryHolidays(ctx context.Context, dr core.DateRange) ([]timetable.Holiday, error) {
	var rows []holidayRow
	q := `SELECT id, date, name FROM holiday WHERE date >= $1 AND date < $2 ORDER BY date`
	if err := queries.Raw(q, dr.From.UTC(), dr.To.UTC()).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying holidays")
	}
	holidays := make([]timetable.Holiday, 0, len(rows))
	for _, r := range rows {
		holidays = append(holidays, r.unboil())
	}
	return holidays, nil
}

func (repo timetableRepository) DeleteHoliday(ctx context.Context, id int) error {
	res, err := queries.Raw(`DELETE FROM holiday WHERE id = $1`, id).ExecContext(ctx, repo.exec)
	return checkAffected(res, err, timetable.ErrHolidayNotFound, "deleting holiday")
}
