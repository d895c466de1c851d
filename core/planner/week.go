package planner

import (
	"time"

	"github.com/trezcool/mwalimu/core"
)

const minutesPerDay = 24 * 60

var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ToMondayFirst converts a Sunday-first weekday into a Monday-first index (Monday = 0, Sunday = 6).
// Timetable slots, holidays, events and unavailable blocks all share this convention.
func ToMondayFirst(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// WeekDay returns the Monday-first weekday of `t` in UTC.
func WeekDay(t time.Time) int {
	return ToMondayFirst(t.UTC().Weekday())
}

// WeekStart normalises `t` to midnight UTC of the Monday of its week.
func WeekStart(t time.Time) time.Time {
	day := core.TruncateDay(t)
	return day.AddDate(0, 0, -WeekDay(day))
}

// DayDate returns the calendar date of `day` in the week starting on `weekStart`.
func DayDate(weekStart time.Time, day int) time.Time {
	return WeekStart(weekStart).AddDate(0, 0, day)
}

// WeekRange returns the half-open [Monday, next Monday) range of the week of `t`.
func WeekRange(t time.Time) core.DateRange {
	start := WeekStart(t)
	return core.DateRange{From: start, To: start.AddDate(0, 0, 7)}
}

func DayName(day int) string {
	if day < 0 || day > 6 {
		return ""
	}
	return dayNames[day]
}

func minuteOfDay(t time.Time) int {
	t = t.UTC()
	return t.Hour()*60 + t.Minute()
}
