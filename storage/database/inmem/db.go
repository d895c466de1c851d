package inmemdb

import (
	"sync"

	"github.com/trezcool/mwalimu/core/curriculum"
	"github.com/trezcool/mwalimu/core/planner"
	"github.com/trezcool/mwalimu/core/timetable"
	"github.com/trezcool/mwalimu/core/user"
)

// DB is an in-memory stand-in for the postgres schema, used by tests and `database.engine=memory`.
// One lock guards every table so that cross-table operations (cascades, plan joins) stay consistent.
type DB struct {
	mu sync.RWMutex

	users map[string]*user.User

	subjects   map[int]*curriculum.Subject
	milestones map[int]*curriculum.Milestone
	activities map[int]*curriculum.Activity

	slots       map[int]*timetable.Slot
	events      map[int]*timetable.Event
	unavailable map[int]*timetable.UnavailableBlock
	holidays    map[int]*timetable.Holiday

	plans map[string]*planRow // {week start date: plan}

	seq map[string]int // serial PKs
}

type planRow struct {
	plan  planner.Plan
	items []planner.ScheduleItem
}

func Open() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		subjects:    make(map[int]*curriculum.Subject),
		milestones:  make(map[int]*curriculum.Milestone),
		activities:  make(map[int]*curriculum.Activity),
		slots:       make(map[int]*timetable.Slot),
		events:      make(map[int]*timetable.Event),
		unavailable: make(map[int]*timetable.UnavailableBlock),
		holidays:    make(map[int]*timetable.Holiday),
		plans:       make(map[string]*planRow),
		seq:         make(map[string]int),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID(table string) int {
	db.seq[table]++
	return db.seq[table]
}

// deletePlanItems drops the plan items matching `drop`. Must be called with the write lock held.
func (db *DB) deletePlanItems(drop func(item planner.ScheduleItem) bool) {
	for _, row := range db.plans {
		kept := row.items[:0]
		for _, item := range row.items {
			if !drop(item) {
				kept = append(kept, item)
			}
		}
		row.items = kept
	}
}

// deleteActivities must be called with the write lock held.
func (db *DB) deleteActivities(match func(act *curriculum.Activity) bool) {
	deleted := make(map[int]bool)
	for id, act := range db.activities {
		if match(act) {
			delete(db.activities, id)
			deleted[id] = true
		}
	}
	if len(deleted) > 0 {
		db.deletePlanItems(func(item planner.ScheduleItem) bool {
			id, ok := planner.ActivityID(item)
			return ok && deleted[id]
		})
	}
}
