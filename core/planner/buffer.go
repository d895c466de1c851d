package planner

// ScheduleBufferBlockPerDay reserves one buffer block on every day present in `blocks`.
//
// It is a no-op unless `preserve` is set. A day with an unused block gets a Buffer on the first
// unused block in `blocks` order. A fully booked day loses its last assignment, which is replaced in
// place by a Buffer on the same slot; those displaced assignments are returned as `evicted`.
func ScheduleBufferBlockPerDay(
	schedule []ScheduleItem,
	blocks []DailyBlock,
	preserve bool,
) (items []ScheduleItem, evicted []Assignment) {
	if !preserve {
		return schedule, nil
	}

	items = make([]ScheduleItem, len(schedule), len(schedule)+7)
	copy(items, schedule)

	for _, day := range distinctDays(blocks) {
		used := make(map[int]bool)
		lastIdx := -1
		for i, item := range items {
			p := item.At()
			if p.Day != day {
				continue
			}
			used[p.SlotID] = true
			if _, ok := item.(Assignment); ok {
				lastIdx = i
			}
		}

		free, found := 0, false
		for _, b := range blocks {
			if b.Day == day && !used[b.SlotID] {
				free, found = b.SlotID, true
				break
			}
		}

		switch {
		case found:
			items = append(items, Buffer{Placement{Day: day, SlotID: free}})
		case lastIdx >= 0:
			a := items[lastIdx].(Assignment)
			evicted = append(evicted, a)
			items[lastIdx] = Buffer{a.Placement}
		}
	}
	return items, evicted
}
