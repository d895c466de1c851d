package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(day, slotID, start int, subjectID int) DailyBlock {
	return DailyBlock{Day: day, SlotID: slotID, StartMin: start, EndMin: start + 60, SubjectID: intPtr(subjectID)}
}

// weekdayBlocks returns one 09:00 block of `subjectID` per weekday, Monday to Friday.
func weekdayBlocks(subjectID int) []DailyBlock {
	blocks := make([]DailyBlock, 0, 5)
	for day := 0; day < 5; day++ {
		blocks = append(blocks, block(day, day+1, 540, subjectID))
	}
	return blocks
}

func assignedIDs(items []ScheduleItem) []int {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		if id, ok := ActivityID(item); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func TestGenerateWeeklySchedule_UrgencyOrder(t *testing.T) {
	res := GenerateWeeklySchedule(Options{
		AvailableBlocks: weekdayBlocks(1),
		WorkItems: []WorkItem{
			{ID: 1, MilestoneID: 12, SubjectID: 1},
			{ID: 2, MilestoneID: 10, SubjectID: 1},
			{ID: 3, MilestoneID: 11, SubjectID: 1},
		},
		MilestonePriorities: map[int]float64{10: 10, 11: 5, 12: 1},
		Pacing:              PacingStrict,
	})

	assert.Equal(t, []ScheduleItem{
		Assignment{Placement: Placement{Day: 0, SlotID: 1}, ActivityID: 2},
		Assignment{Placement: Placement{Day: 1, SlotID: 2}, ActivityID: 3},
		Assignment{Placement: Placement{Day: 2, SlotID: 3}, ActivityID: 1},
	}, res.Items)
	assert.Empty(t, res.Buffers())
	assert.Empty(t, res.Evicted)
}

func TestGenerateWeeklySchedule_OneBlockPerDayWithBuffer(t *testing.T) {
	res := GenerateWeeklySchedule(Options{
		AvailableBlocks: weekdayBlocks(1),
		WorkItems: []WorkItem{
			{ID: 1, MilestoneID: 12, SubjectID: 1},
			{ID: 2, MilestoneID: 10, SubjectID: 1},
			{ID: 3, MilestoneID: 11, SubjectID: 1},
		},
		MilestonePriorities: map[int]float64{10: 10, 11: 5, 12: 1},
		Pacing:              PacingStrict,
		PreserveBuffer:      true,
	})

	// every day has a single block, so each one is kept free
	assert.Empty(t, res.Assignments())
	assert.Len(t, res.Buffers(), 5)
	assert.Equal(t, []Assignment{
		{Placement: Placement{Day: 0, SlotID: 1}, ActivityID: 2},
		{Placement: Placement{Day: 1, SlotID: 2}, ActivityID: 3},
		{Placement: Placement{Day: 2, SlotID: 3}, ActivityID: 1},
	}, res.Evicted)
}

func TestResult_emptyViews(t *testing.T) {
	tests := []struct {
		name string
		res  Result
	}{
		{name: "no items", res: Result{Items: []ScheduleItem{}}},
		{name: "assignments only", res: Result{Items: []ScheduleItem{Assignment{Placement: Placement{Day: 0, SlotID: 1}, ActivityID: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []Buffer{}, tt.res.Buffers())
		})
	}
	assert.Equal(t, []Assignment{}, Result{}.Assignments())
	assert.Equal(t, []Buffer{}, Result{}.Buffers())
}

func TestGenerateWeeklySchedule_PriorityTieBreak(t *testing.T) {
	tests := []struct {
		name       string
		items      []WorkItem
		priorities map[int]float64
		want       int
	}{
		{
			name:       "higher urgency wins",
			items:      []WorkItem{{ID: 1, MilestoneID: 1, SubjectID: 1}, {ID: 2, MilestoneID: 2, SubjectID: 1}},
			priorities: map[int]float64{1: 0.5, 2: 3},
			want:       2,
		},
		{
			name:       "lower id wins a tie",
			items:      []WorkItem{{ID: 7, MilestoneID: 1, SubjectID: 1}, {ID: 4, MilestoneID: 2, SubjectID: 1}},
			priorities: map[int]float64{1: 2, 2: 2},
			want:       4,
		},
		{
			name:  "missing priorities count as zero",
			items: []WorkItem{{ID: 1, MilestoneID: 1, SubjectID: 1}, {ID: 2, MilestoneID: 2, SubjectID: 1}},
			priorities: map[int]float64{
				2: 0.1,
			},
			want: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := GenerateWeeklySchedule(Options{
				AvailableBlocks:     []DailyBlock{block(0, 1, 540, 1)},
				WorkItems:           tt.items,
				MilestonePriorities: tt.priorities,
				Pacing:              PacingStrict,
			})
			assert.Equal(t, []int{tt.want}, assignedIDs(res.Items))
		})
	}
}

func TestGenerateWeeklySchedule_Invariants(t *testing.T) {
	done := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)
	blocks := []DailyBlock{
		block(2, 9, 600, 2),
		block(0, 1, 600, 1),
		block(0, 2, 540, 2),
		block(1, 4, 540, 3),
		block(1, 3, 540, 1),
		block(2, 8, 540, 1),
	}
	items := []WorkItem{
		{ID: 1, MilestoneID: 1, SubjectID: 1},
		{ID: 2, MilestoneID: 1, SubjectID: 1, CompletedAt: &done},
		{ID: 3, MilestoneID: 2, SubjectID: 2},
		{ID: 4, MilestoneID: 1, SubjectID: 1},
		{ID: 5, MilestoneID: 3, SubjectID: 4},
		{ID: 6, MilestoneID: 2, SubjectID: 2},
	}
	subjects := make(map[int]int, len(items))
	for _, wi := range items {
		subjects[wi.ID] = wi.SubjectID
	}
	blockSubjects := make(map[int]int, len(blocks))
	for _, b := range blocks {
		blockSubjects[b.SlotID] = *b.SubjectID
	}

	for _, pacing := range []Pacing{PacingStrict, PacingRelaxed} {
		for _, preserve := range []bool{false, true} {
			res := GenerateWeeklySchedule(Options{
				AvailableBlocks: blocks,
				WorkItems:       items,
				Pacing:          pacing,
				PreserveBuffer:  preserve,
			})

			slots := make(map[int]bool)
			acts := make(map[int]bool)
			for _, item := range res.Items {
				p := item.At()
				require.False(t, slots[p.SlotID], "slot %d used twice (%s, buffer=%t)", p.SlotID, pacing, preserve)
				slots[p.SlotID] = true

				id, ok := ActivityID(item)
				if !ok {
					continue
				}
				require.False(t, acts[id], "activity %d assigned twice (%s, buffer=%t)", id, pacing, preserve)
				acts[id] = true
				assert.Equal(t, blockSubjects[p.SlotID], subjects[id], "subject affinity of activity %d", id)
				assert.NotEqual(t, 2, id, "completed activity scheduled")
			}

			if pacing == PacingRelaxed && preserve {
				assert.LessOrEqual(t, len(res.Assignments()), len(blocks)-3)
			}
		}
	}

	t.Run("chronological order", func(t *testing.T) {
		res := GenerateWeeklySchedule(Options{AvailableBlocks: blocks, WorkItems: items, Pacing: PacingStrict})
		assert.Equal(t, []ScheduleItem{
			Assignment{Placement: Placement{Day: 0, SlotID: 2}, ActivityID: 3},
			Assignment{Placement: Placement{Day: 0, SlotID: 1}, ActivityID: 1},
			Assignment{Placement: Placement{Day: 1, SlotID: 3}, ActivityID: 4},
			Assignment{Placement: Placement{Day: 2, SlotID: 9}, ActivityID: 6},
		}, res.Items)
	})
}

func TestGenerateWeeklySchedule_Pacing(t *testing.T) {
	// 2 days of 3 blocks, more work than blocks
	blocks := []DailyBlock{
		block(0, 1, 480, 1), block(0, 2, 540, 1), block(0, 3, 600, 1),
		block(1, 4, 480, 1), block(1, 5, 540, 1), block(1, 6, 600, 1),
	}
	items := make([]WorkItem, 0, 10)
	for id := 1; id <= 10; id++ {
		items = append(items, WorkItem{ID: id, MilestoneID: 1, SubjectID: 1})
	}

	tests := []struct {
		name         string
		pacing       Pacing
		preserve     bool
		wantAssigned []int
		wantBuffers  []Buffer
		wantEvicted  []int
	}{
		{
			name:         "strict fills every block",
			pacing:       PacingStrict,
			wantAssigned: []int{1, 2, 3, 4, 5, 6},
			wantBuffers:  []Buffer{},
		},
		{
			name:         "relaxed without buffer uses every block",
			pacing:       PacingRelaxed,
			wantAssigned: []int{1, 2, 3, 4, 5, 6},
			wantBuffers:  []Buffer{},
		},
		{
			name:         "strict with buffer evicts the last assignment of each day",
			pacing:       PacingStrict,
			preserve:     true,
			wantAssigned: []int{1, 2, 4, 5},
			wantBuffers:  []Buffer{{Placement{Day: 0, SlotID: 3}}, {Placement{Day: 1, SlotID: 6}}},
			wantEvicted:  []int{3, 6},
		},
		{
			name:         "relaxed with buffer stops once the budget is spent",
			pacing:       PacingRelaxed,
			preserve:     true,
			wantAssigned: []int{1, 2, 4},
			wantBuffers:  []Buffer{{Placement{Day: 0, SlotID: 3}}, {Placement{Day: 1, SlotID: 5}}},
			wantEvicted:  []int{3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := GenerateWeeklySchedule(Options{
				AvailableBlocks: blocks,
				WorkItems:       items,
				Pacing:          tt.pacing,
				PreserveBuffer:  tt.preserve,
			})
			assert.Equal(t, tt.wantAssigned, assignedIDs(res.Items))
			assert.Equal(t, tt.wantBuffers, res.Buffers())

			evicted := make([]int, 0, len(res.Evicted))
			for _, a := range res.Evicted {
				evicted = append(evicted, a.ActivityID)
			}
			if tt.wantEvicted == nil {
				assert.Empty(t, evicted)
			} else {
				assert.Equal(t, tt.wantEvicted, evicted)
			}
		})
	}
}

func TestGenerateWeeklySchedule_Empty(t *testing.T) {
	done := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		blocks []DailyBlock
		items  []WorkItem
	}{
		{name: "no blocks", items: []WorkItem{{ID: 1, MilestoneID: 1, SubjectID: 1}}},
		{name: "no work items", blocks: weekdayBlocks(1)},
		{name: "nothing pending", blocks: weekdayBlocks(1), items: []WorkItem{{ID: 1, MilestoneID: 1, SubjectID: 1, CompletedAt: &done}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := GenerateWeeklySchedule(Options{
				AvailableBlocks: tt.blocks,
				WorkItems:       tt.items,
				Pacing:          PacingStrict,
				PreserveBuffer:  true,
			})
			assert.NotNil(t, res.Items)
			assert.Empty(t, res.Items)
			assert.Empty(t, res.Evicted)
		})
	}
}
