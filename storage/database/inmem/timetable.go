package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/planner"
	"github.com/trezcool/mwalimu/core/timetable"
)

type timetableRepository struct {
	db *DB
}

var _ timetable.Repository = (*timetableRepository)(nil) // interface compliance check

func NewTimetableRepository(db *DB) *timetableRepository {
	return &timetableRepository{db: db}
}

func copySlot(slot timetable.Slot) timetable.Slot {
	if slot.SubjectID != nil {
		id := *slot.SubjectID
		slot.SubjectID = &id
	}
	return slot
}

// Slots

func (repo *timetableRepository) CreateSlot(_ context.Context, slot timetable.Slot) (timetable.Slot, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	slot = copySlot(slot)
	slot.ID = repo.db.nextID("timetable_slot")
	repo.db.slots[slot.ID] = &slot
	return copySlot(slot), nil
}

func (repo *timetableRepository) QuerySlots(_ context.Context) ([]timetable.Slot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	slots := make([]timetable.Slot, 0, len(repo.db.slots))
	for _, slot := range repo.db.slots {
		slots = append(slots, copySlot(*slot))
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		if slots[i].StartMin != slots[j].StartMin {
			return slots[i].StartMin < slots[j].StartMin
		}
		return slots[i].ID < slots[j].ID
	})
	return slots, nil
}

func (repo *timetableRepository) GetSlot(_ context.Context, id int) (timetable.Slot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if slot, ok := repo.db.slots[id]; ok {
		return copySlot(*slot), nil
	}
	return timetable.Slot{}, timetable.ErrSlotNotFound
}

func (repo *timetableRepository) UpdateSlot(_ context.Context, slot timetable.Slot) (timetable.Slot, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.slots[slot.ID]; !ok {
		return timetable.Slot{}, timetable.ErrSlotNotFound
	}
	slot = copySlot(slot)
	repo.db.slots[slot.ID] = &slot
	return copySlot(slot), nil
}

// DeleteSlot also drops the plan items of the slot.
func (repo *timetableRepository) DeleteSlot(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.slots[id]; !ok {
		return timetable.ErrSlotNotFound
	}
	delete(repo.db.slots, id)
	repo.db.deletePlanItems(func(item planner.ScheduleItem) bool { return item.At().SlotID == id })
	return nil
}

// Events

func (repo *timetableRepository) CreateEvent(_ context.Context, ev timetable.Event) (timetable.Event, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ev.ID = repo.db.nextID("calendar_event")
	repo.db.events[ev.ID] = &ev
	return ev, nil
}

func (repo *timetableRepository) QueryEvents(_ context.Context, dr core.DateRange) ([]timetable.Event, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	events := make([]timetable.Event, 0)
	for _, ev := range repo.db.events {
		if dr.Overlaps(ev.Start, ev.End) {
			events = append(events, *ev)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

func (repo *timetableRepository) DeleteEvent(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.events[id]; !ok {
		return timetable.ErrEventNotFound
	}
	delete(repo.db.events, id)
	return nil
}

// Unavailable blocks

func (repo *timetableRepository) CreateUnavailableBlock(_ context.Context, ub timetable.UnavailableBlock) (timetable.UnavailableBlock, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ub.ID = repo.db.nextID("unavailable_block")
	repo.db.unavailable[ub.ID] = &ub
	return ub, nil
}

func (repo *timetableRepository) QueryUnavailableBlocks(_ context.Context, dr core.DateRange) ([]timetable.UnavailableBlock, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	blocks := make([]timetable.UnavailableBlock, 0)
	for _, ub := range repo.db.unavailable {
		if dr.Contains(ub.Date) {
			blocks = append(blocks, *ub)
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		if !blocks[i].Date.Equal(blocks[j].Date) {
			return blocks[i].Date.Before(blocks[j].Date)
		}
		if blocks[i].StartMin != blocks[j].StartMin {
			return blocks[i].StartMin < blocks[j].StartMin
		}
		return blocks[i].ID < blocks[j].ID
	})
	return blocks, nil
}

func (repo *timetableRepository) DeleteUnavailableBlock(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.unavailable[id]; !ok {
		return timetable.ErrUnavailableNotFound
	}
	delete(repo.db.unavailable, id)
	return nil
}

// Holidays

func (repo *timetableRepository) CreateHoliday(_ context.Context, h timetable.Holiday) (timetable.Holiday, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, other := range repo.db.holidays {
		if other.Date.Equal(h.Date) {
			return timetable.Holiday{}, timetable.ErrHolidayExists
		}
	}
	h.ID = repo.db.nextID("holiday")
	repo.db.holidays[h.ID] = &h
	return h, nil
}

func (repo *timetableRepository) QueryHolidays(_ context.Context, dr core.DateRange) ([]timetable.Holiday, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	holidays := make([]timetable.Holiday, 0)
	for _, h := range repo.db.holidays {
		if dr.Contains(h.Date) {
			holidays = append(holidays, *h)
		}
	}
	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date.Before(holidays[j].Date) })
	return holidays, nil
}

func (repo *timetableRepository) DeleteHoliday(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.holidays[id]; !ok {
		return timetable.ErrHolidayNotFound
	}
	delete(repo.db.holidays, id)
	return nil
}
