package planner

import "sort"

// Options are the inputs of GenerateWeeklySchedule.
type Options struct {
	AvailableBlocks []DailyBlock
	WorkItems       []WorkItem
	// MilestonePriorities maps a milestone ID to its urgency; higher is more urgent, missing is 0.
	MilestonePriorities map[int]float64
	Pacing              Pacing
	PreserveBuffer      bool
}

// workQueue is a FIFO of the pending work items of one subject.
type workQueue struct {
	items []WorkItem
	head  int
}

func (q *workQueue) push(item WorkItem) { q.items = append(q.items, item) }
func (q *workQueue) len() int           { return len(q.items) - q.head }

func (q *workQueue) pop() (WorkItem, bool) {
	if q.len() == 0 {
		return WorkItem{}, false
	}
	item := q.items[q.head]
	q.head++
	return item, true
}

// sortByUrgency orders the queue by descending urgency, then ascending ID.
func (q *workQueue) sortByUrgency(priorities map[int]float64) {
	pending := q.items[q.head:]
	sort.SliceStable(pending, func(i, j int) bool {
		pi, pj := priorities[pending[i].MilestoneID], priorities[pending[j].MilestoneID]
		if pi != pj {
			return pi > pj
		}
		return pending[i].ID < pending[j].ID
	})
}

// buildQueues groups the pending work items by subject.
func buildQueues(items []WorkItem, priorities map[int]float64) map[int]*workQueue {
	queues := make(map[int]*workQueue)
	for _, item := range items {
		if !item.Pending() {
			continue
		}
		q, ok := queues[item.SubjectID]
		if !ok {
			q = new(workQueue)
			queues[item.SubjectID] = q
		}
		q.push(item)
	}
	for _, q := range queues {
		q.sortByUrgency(priorities)
	}
	return queues
}

// sortBlocks returns a copy of `blocks` in chronological order.
func sortBlocks(blocks []DailyBlock) []DailyBlock {
	sorted := make([]DailyBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Day != sorted[j].Day {
			return sorted[i].Day < sorted[j].Day
		}
		if sorted[i].StartMin != sorted[j].StartMin {
			return sorted[i].StartMin < sorted[j].StartMin
		}
		return sorted[i].SlotID < sorted[j].SlotID
	})
	return sorted
}

func distinctDays(blocks []DailyBlock) []int {
	seen := make(map[int]bool, 7)
	days := make([]int, 0, 7)
	for _, b := range blocks {
		if !seen[b.Day] {
			seen[b.Day] = true
			days = append(days, b.Day)
		}
	}
	return days
}

// GenerateWeeklySchedule greedily assigns pending work items to the available blocks.
//
// Blocks are walked chronologically and each one takes the most urgent remaining item of its
// subject. Strict pacing fills every block it can. Relaxed pacing stops once it has made
// `len(blocks)` assignments, minus one per day when a buffer is preserved.
// Leftover items stay unscheduled; no block or item is used twice. Without pending items or blocks
// the result is empty, buffers included.
func GenerateWeeklySchedule(opts Options) Result {
	queues := buildQueues(opts.WorkItems, opts.MilestonePriorities)
	if len(opts.AvailableBlocks) == 0 || len(queues) == 0 {
		return Result{Items: []ScheduleItem{}}
	}

	blocks := sortBlocks(opts.AvailableBlocks)

	remaining := len(blocks)
	if opts.PreserveBuffer {
		remaining -= len(distinctDays(blocks))
	}

	schedule := make([]ScheduleItem, 0, len(blocks))
	for _, block := range blocks {
		if opts.Pacing == PacingRelaxed && remaining <= 0 {
			break
		}
		if block.SubjectID == nil {
			continue
		}
		q, ok := queues[*block.SubjectID]
		if !ok {
			continue
		}
		item, ok := q.pop()
		if !ok {
			continue
		}
		schedule = append(schedule, Assignment{
			Placement:  Placement{Day: block.Day, SlotID: block.SlotID},
			ActivityID: item.ID,
		})
		if opts.Pacing == PacingRelaxed {
			remaining--
		}
	}

	items, evicted := ScheduleBufferBlockPerDay(schedule, blocks, opts.PreserveBuffer)
	return Result{Items: items, Evicted: evicted}
}
