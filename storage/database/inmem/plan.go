package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/planner"
)

type planRepository struct {
	db *DB
}

var _ planner.Repository = (*planRepository)(nil) // interface compliance check

func NewPlanRepository(db *DB) *planRepository {
	return &planRepository{db: db}
}

func weekKey(weekStart time.Time) string {
	return weekStart.UTC().Format(core.DateLayout)
}

// checkReferences must be called with a lock held.
func (repo *planRepository) checkReferences(items []planner.ScheduleItem) error {
	var missingSlots, missingActs []int
	for _, item := range items {
		if _, ok := repo.db.slots[item.At().SlotID]; !ok {
			missingSlots = append(missingSlots, item.At().SlotID)
		}
		if id, ok := planner.ActivityID(item); ok {
			if _, ok = repo.db.activities[id]; !ok {
				missingActs = append(missingActs, id)
			}
		}
	}
	if len(missingSlots) > 0 {
		sort.Ints(missingSlots)
		return &planner.ReferenceError{Table: "timetable slots", IDs: missingSlots}
	}
	if len(missingActs) > 0 {
		sort.Ints(missingActs)
		return &planner.ReferenceError{Table: "activities", IDs: missingActs}
	}
	return nil
}

func (repo *planRepository) ReplaceWeek(_ context.Context, plan planner.Plan, items []planner.ScheduleItem) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkReferences(items); err != nil {
		return err
	}

	plan.Items = nil
	plan.Evicted = 0
	repo.db.plans[weekKey(plan.WeekStart)] = &planRow{
		plan:  plan,
		items: append([]planner.ScheduleItem(nil), items...),
	}
	return nil
}

func (repo *planRepository) GetPlan(_ context.Context, weekStart time.Time) (planner.Plan, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	row, ok := repo.db.plans[weekKey(weekStart)]
	if !ok {
		return planner.Plan{}, planner.ErrPlanNotFound
	}

	plan := row.plan
	plan.Items = make([]planner.PlanItem, 0, len(row.items))
	for _, item := range row.items {
		slot, ok := repo.db.slots[item.At().SlotID]
		if !ok {
			continue
		}
		pi := planner.PlanItem{
			Day:      item.At().Day,
			SlotID:   slot.ID,
			StartMin: slot.StartMin,
			EndMin:   slot.EndMin,
		}
		if slot.SubjectID != nil {
			subjectID := *slot.SubjectID
			pi.SubjectID = &subjectID
			if subj, ok := repo.db.subjects[subjectID]; ok {
				pi.SubjectName = subj.Name
			}
		}
		if id, ok := planner.ActivityID(item); ok {
			act, ok := repo.db.activities[id]
			if !ok {
				continue
			}
			actID := act.ID
			pi.ActivityID = &actID
			pi.ActivityTitle = act.Title
			pi.ActivityNotes = act.Notes
		}
		plan.Items = append(plan.Items, pi)
	}

	sort.SliceStable(plan.Items, func(i, j int) bool {
		a, b := plan.Items[i], plan.Items[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.StartMin != b.StartMin {
			return a.StartMin < b.StartMin
		}
		return a.SlotID < b.SlotID
	})
	return plan, nil
}

func (repo *planRepository) DeletePlan(_ context.Context, weekStart time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := weekKey(weekStart)
	if _, ok := repo.db.plans[key]; !ok {
		return planner.ErrPlanNotFound
	}
	delete(repo.db.plans, key)
	return nil
}
