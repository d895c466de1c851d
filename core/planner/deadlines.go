package planner

import (
	"sort"
	"time"

	"github.com/trezcool/mwalimu/core"
)

// CheckDeadlines cross-checks a generated schedule against milestone target dates.
//
// An assignment conflicts when the date it lands on is after the target date of its milestone.
// Target dates already past before `weekStart` are ignored (overdue milestones are ranked instead).
// Returns a *DeadlineConflictError listing every conflict, sorted by day then slot.
func CheckDeadlines(
	weekStart time.Time,
	items []ScheduleItem,
	workItems []WorkItem,
	deadlines map[int]time.Time,
) error {
	weekStart = WeekStart(weekStart)

	milestones := make(map[int]int, len(workItems))
	for _, wi := range workItems {
		milestones[wi.ID] = wi.MilestoneID
	}

	type found struct {
		DeadlineConflict
		slotID int
	}
	var conflicts []found
	for _, item := range items {
		a, ok := item.(Assignment)
		if !ok {
			continue
		}
		milestoneID, ok := milestones[a.ActivityID]
		if !ok {
			continue
		}
		deadline, ok := deadlines[milestoneID]
		if !ok || deadline.IsZero() {
			continue
		}
		deadline = core.TruncateDay(deadline)
		if deadline.Before(weekStart) {
			continue
		}
		date := DayDate(weekStart, a.Day)
		if date.After(deadline) {
			conflicts = append(conflicts, found{
				DeadlineConflict: DeadlineConflict{
					ActivityID:  a.ActivityID,
					MilestoneID: milestoneID,
					Deadline:    deadline,
					Day:         a.Day,
					Date:        date,
				},
				slotID: a.SlotID,
			})
		}
	}
	if len(conflicts) == 0 {
		return nil
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Day != conflicts[j].Day {
			return conflicts[i].Day < conflicts[j].Day
		}
		return conflicts[i].slotID < conflicts[j].slotID
	})
	err := &DeadlineConflictError{Conflicts: make([]DeadlineConflict, len(conflicts))}
	for i, c := range conflicts {
		err.Conflicts[i] = c.DeadlineConflict
	}
	return err
}
