package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/planner"
)

// generate builds the lesson plan of the week `week` falls in and prints it day by day.
func (cli *commandLine) generate(week, pacing, buffer string) error {
	date, err := core.ParseDate(week)
	if err != nil {
		return core.NewFieldError("week", "week must be a date formatted as YYYY-MM-DD")
	}
	req := planner.GenerateRequest{
		WeekStart: date,
		Pacing:    planner.Pacing(core.CleanString(pacing, true /* lower */)),
	}
	if buffer = core.CleanString(buffer); buffer != "" {
		preserve, err := strconv.ParseBool(buffer)
		if err != nil {
			return core.NewFieldError("buffer", "buffer must be a boolean")
		}
		req.PreserveBuffer = &preserve
	}

	plan, err := cli.plannerSvc.Generate(context.Background(), req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "Week of %s (%s, buffer=%t)\n", plan.WeekStart.Format(core.DateLayout), plan.Pacing, plan.PreserveBuffer)
	for day := 0; day < 7; day++ {
		dp := plan.Day(day)
		if len(dp.Items) == 0 {
			continue
		}
		fmt.Fprintln(cli.out, dp.Label())
		for _, item := range dp.Items {
			what := "(buffer)"
			if !item.IsBuffer() {
				what = item.SubjectName + ": " + item.ActivityTitle
			}
			fmt.Fprintf(cli.out, "  %s-%s  %s\n", planner.FormatMinute(item.StartMin), planner.FormatMinute(item.EndMin), what)
		}
	}
	if plan.Evicted > 0 {
		fmt.Fprintf(cli.out, "%d activities were moved out to keep daily buffers\n", plan.Evicted)
	}
	return nil
}
