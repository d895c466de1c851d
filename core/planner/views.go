package planner

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/trezcool/mwalimu/core"
)

// DayPlan is the part of a Plan scheduled on one date.
type DayPlan struct {
	Date  time.Time  `json:"date"`
	Day   int        `json:"day"`
	Items []PlanItem `json:"items"`
}

// Day returns the items of `day` (Monday = 0), in plan order.
func (p Plan) Day(day int) DayPlan {
	dp := DayPlan{Date: DayDate(p.WeekStart, day), Day: day, Items: []PlanItem{}}
	for _, item := range p.Items {
		if item.Day == day {
			dp.Items = append(dp.Items, item)
		}
	}
	return dp
}

func (dp DayPlan) Label() string {
	return fmt.Sprintf("%s %s", DayName(dp.Day), dp.Date.Format(core.DateLayout))
}

// CSV renders the day as `start,end,subject,activity,notes` rows; buffers have an empty activity.
func (dp DayPlan) CSV() (io.Reader, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	rows := [][]string{{"start", "end", "subject", "activity", "notes", "buffer"}}
	for _, item := range dp.Items {
		rows = append(rows, []string{
			FormatMinute(item.StartMin),
			FormatMinute(item.EndMin),
			item.SubjectName,
			item.ActivityTitle,
			item.ActivityNotes,
			strconv.FormatBool(item.IsBuffer()),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf, nil
}

// FormatMinute formats minutes since midnight as HH:MM.
func FormatMinute(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

type (
	emailItem struct {
		Time     string
		Buffer   bool
		Subject  string
		Activity string
		Notes    string
	}

	emailDay struct {
		Label string
		Items []emailItem
	}

	planReadyData struct {
		Name      string
		WeekStart string
		Days      []emailDay
		Evicted   int
	}
)

func toEmailItem(item PlanItem) emailItem {
	return emailItem{
		Time:     FormatMinute(item.StartMin) + "-" + FormatMinute(item.EndMin),
		Buffer:   item.IsBuffer(),
		Subject:  item.SubjectName,
		Activity: item.ActivityTitle,
		Notes:    item.ActivityNotes,
	}
}

func (dp DayPlan) emailData() emailDay {
	ed := emailDay{Label: dp.Label(), Items: make([]emailItem, 0, len(dp.Items))}
	for _, item := range dp.Items {
		ed.Items = append(ed.Items, toEmailItem(item))
	}
	return ed
}

func (p Plan) emailData(name string) planReadyData {
	data := planReadyData{
		Name:      name,
		WeekStart: p.WeekStart.Format(core.DateLayout),
		Evicted:   p.Evicted,
	}
	if data.Name == "" {
		data.Name = "there"
	}
	for day := 0; day < 7; day++ {
		if dp := p.Day(day); len(dp.Items) > 0 {
			data.Days = append(data.Days, dp.emailData())
		}
	}
	return data
}
