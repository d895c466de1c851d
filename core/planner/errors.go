package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
)

var (
	ErrNoActivities = errors.New("no activities available")
	ErrPlanNotFound = core.NewNotFoundError("lesson plan not found")
)

// DeadlineConflict is an assignment scheduled after the target date of its milestone.
type DeadlineConflict struct {
	ActivityID  int       `json:"activity_id"`
	MilestoneID int       `json:"milestone_id"`
	Deadline    time.Time `json:"deadline"`
	Day         int       `json:"day"`
	Date        time.Time `json:"date"`
}

// DeadlineConflictError rejects a whole generation.
type DeadlineConflictError struct {
	Conflicts []DeadlineConflict
}

func (e *DeadlineConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf(
			"activity %d on %s is past milestone %d deadline %s",
			c.ActivityID, c.Date.Format(core.DateLayout), c.MilestoneID, c.Deadline.Format(core.DateLayout),
		))
	}
	return "deadline conflict: " + strings.Join(parts, "; ")
}

// ReferenceError reports slots or activities that disappeared before the plan could be saved.
type ReferenceError struct {
	Table string
	IDs   []int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s no longer exist: %v", e.Table, e.IDs)
}
