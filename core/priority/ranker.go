// Package priority scores milestones by how urgently their pending activities need teaching.
package priority

import (
	"time"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/curriculum"
)

// OverdueBase is added to the pending count of overdue milestones so they outrank any on-time one.
const OverdueBase = 1000

// Ranker produces an urgency score per milestone ID; higher is more urgent.
type Ranker interface {
	Rank(progress []curriculum.MilestoneProgress, asOf time.Time) map[int]float64
}

// DeadlineRanker scores milestones by pending work per day left until their target date.
type DeadlineRanker struct{}

var _ Ranker = DeadlineRanker{} // interface compliance check

func NewDeadlineRanker() *DeadlineRanker { return &DeadlineRanker{} }

// Rank scores every milestone of `progress`:
//   - no target date, or nothing pending: 0
//   - target date before `asOf`: OverdueBase + pending
//   - otherwise: the load r = pending / max(days left, 1) * 100, squashed to
//     OverdueBase * r / (r + OverdueBase), which keeps the order of loads and stays below OverdueBase
func (DeadlineRanker) Rank(progress []curriculum.MilestoneProgress, asOf time.Time) map[int]float64 {
	today := core.TruncateDay(asOf)
	scores := make(map[int]float64, len(progress))

	for _, mp := range progress {
		pending := mp.Pending()
		if mp.TargetDate == nil || pending <= 0 {
			scores[mp.MilestoneID] = 0
			continue
		}

		target := core.TruncateDay(*mp.TargetDate)
		if target.Before(today) {
			scores[mp.MilestoneID] = float64(OverdueBase + pending)
			continue
		}

		daysLeft := int(target.Sub(today).Hours() / 24)
		if daysLeft < 1 {
			daysLeft = 1
		}
		load := float64(pending) / float64(daysLeft) * 100
		scores[mp.MilestoneID] = OverdueBase * load / (load + OverdueBase)
	}
	return scores
}
