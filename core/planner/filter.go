package planner

import (
	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/timetable"
)

// span is a [start, end) range of minutes on one Monday-first weekday.
type span struct {
	day   int
	start int
	end   int
}

// overlaps uses a half-open test: touching ranges conflict unless one ends where the other starts.
func (s span) overlaps(day, start, end int) bool {
	return s.day == day && !(s.end <= start || s.start >= end)
}

// FilterAvailableBlocks returns the slots that are actually open during the week the calendar
// records were scoped to. Slots without a subject, on a holiday's weekday, or overlapping an event
// or an unavailable block on the same weekday are dropped. The input order is preserved.
func FilterAvailableBlocks(
	slots []timetable.Slot,
	events []timetable.Event,
	unavailable []timetable.UnavailableBlock,
	holidays []timetable.Holiday,
) []DailyBlock {
	holidayDays := make(map[int]bool, len(holidays))
	for _, h := range holidays {
		holidayDays[WeekDay(h.Date)] = true
	}

	busy := make([]span, 0, len(events)+len(unavailable))
	for _, ev := range events {
		busy = append(busy, eventSpans(ev)...)
	}
	for _, ub := range unavailable {
		busy = append(busy, span{day: WeekDay(ub.Date), start: ub.StartMin, end: ub.EndMin})
	}

	blocks := make([]DailyBlock, 0, len(slots))
	for _, slot := range slots {
		if slot.SubjectID == nil {
			continue
		}
		if holidayDays[slot.Day] {
			continue
		}
		if conflicts(busy, slot) {
			continue
		}
		subjectID := *slot.SubjectID
		blocks = append(blocks, DailyBlock{
			Day:       slot.Day,
			SlotID:    slot.ID,
			StartMin:  slot.StartMin,
			EndMin:    slot.EndMin,
			SubjectID: &subjectID,
		})
	}
	return blocks
}

func conflicts(busy []span, slot timetable.Slot) bool {
	for _, s := range busy {
		if s.overlaps(slot.Day, slot.StartMin, slot.EndMin) {
			return true
		}
	}
	return false
}

// eventSpans maps an event onto the weekdays it touches.
// All-day events block whole days; timed events use their UTC hour:minute on the first and last day
// and block any day in between. An event never blocks more than the 7 weekdays.
func eventSpans(ev timetable.Event) []span {
	start, end := ev.Start.UTC(), ev.End.UTC()
	if end.Before(start) {
		end = start
	}
	first, last := core.TruncateDay(start), core.TruncateDay(end)

	if ev.AllDay {
		// an all-day event ending exactly at midnight does not spill onto that day
		if last.After(first) && last.Equal(end) {
			last = last.AddDate(0, 0, -1)
		}
		var spans []span
		for d, n := first, 0; !d.After(last) && n < 7; d, n = d.AddDate(0, 0, 1), n+1 {
			spans = append(spans, span{day: WeekDay(d), start: 0, end: minutesPerDay})
		}
		return spans
	}

	if first.Equal(last) {
		return []span{{day: WeekDay(start), start: minuteOfDay(start), end: minuteOfDay(end)}}
	}

	spans := []span{{day: WeekDay(start), start: minuteOfDay(start), end: minutesPerDay}}
	n := 1
	for d := first.AddDate(0, 0, 1); d.Before(last) && n < 7; d, n = d.AddDate(0, 0, 1), n+1 {
		spans = append(spans, span{day: WeekDay(d), start: 0, end: minutesPerDay})
	}
	if endMin := minuteOfDay(end); endMin > 0 && n < 7 {
		spans = append(spans, span{day: WeekDay(end), start: 0, end: endMin})
	}
	return spans
}
