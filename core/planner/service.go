package planner

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/curriculum"
	"github.com/trezcool/mwalimu/core/priority"
	"github.com/trezcool/mwalimu/core/timetable"
)

var nowFunc = time.Now

type (
	Repository interface {
		// ReplaceWeek deletes any plan of `plan.WeekStart` and saves `plan` with `items`, in one transaction.
		// It returns a *ReferenceError, and saves nothing, if a slot or activity of `items` no longer exists.
		ReplaceWeek(ctx context.Context, plan Plan, items []ScheduleItem) error
		// GetPlan returns the plan of the week with its items joined to slot and activity details,
		// ordered by day, start then slot ID.
		GetPlan(ctx context.Context, weekStart time.Time) (Plan, error)
		DeletePlan(ctx context.Context, weekStart time.Time) error
	}

	// CurriculumReader is the part of curriculum.Service the planner reads work from.
	CurriculumReader interface {
		PendingActivities(ctx context.Context) ([]curriculum.Activity, error)
		MilestoneProgress(ctx context.Context) ([]curriculum.MilestoneProgress, error)
	}

	// CalendarReader is the part of timetable.Service the planner reads blocks from.
	CalendarReader interface {
		WeekState(ctx context.Context, weekStart time.Time) (timetable.WeekState, error)
	}

	Service struct {
		conf       *core.Config
		repo       Repository
		curriculum CurriculumReader
		calendar   CalendarReader
		ranker     priority.Ranker
		mailSvc    core.EmailService
		logger     core.Logger
	}
)

func NewService(
	conf *core.Config,
	repo Repository,
	curriculum CurriculumReader,
	calendar CalendarReader,
	ranker priority.Ranker,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(curriculum, "curriculum"),
		vala.IsNotNil(calendar, "calendar"),
		vala.IsNotNil(ranker, "ranker"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		conf:       conf,
		repo:       repo,
		curriculum: curriculum,
		calendar:   calendar,
		ranker:     ranker,
		mailSvc:    mailSvc,
		logger:     logger,
	}
}

func (svc *Service) withDefaults(req GenerateRequest) (GenerateRequest, error) {
	if req.WeekStart.IsZero() {
		return req, core.NewFieldError("week_start", "this field is required")
	}
	req.WeekStart = WeekStart(req.WeekStart)

	if req.Pacing == "" {
		req.Pacing = Pacing(svc.conf.Planner.DefaultPacing)
	}
	if !req.Pacing.Valid() {
		return req, core.NewFieldError("pacing_strategy", "pacing_strategy must be one of [strict relaxed]")
	}
	if req.PreserveBuffer == nil {
		preserve := svc.conf.Planner.DefaultPreserveBuffer
		req.PreserveBuffer = &preserve
	}
	return req, nil
}

// Generate builds the lesson plan of the week of `req.WeekStart` and replaces any previous one.
//
// It returns ErrNoActivities if nothing is pending, a *DeadlineConflictError if an activity would be
// taught after its milestone's target date, and a *ReferenceError if a slot or activity vanished
// while generating. The previous plan is kept on any error.
func (svc *Service) Generate(ctx context.Context, req GenerateRequest) (Plan, error) {
	req, err := svc.withDefaults(req)
	if err != nil {
		return Plan{}, err
	}
	weekStart, preserve := req.WeekStart, *req.PreserveBuffer

	acts, err := svc.curriculum.PendingActivities(ctx)
	if err != nil {
		return Plan{}, errors.Wrap(err, "loading pending activities")
	}
	if len(acts) == 0 {
		return Plan{}, ErrNoActivities
	}
	workItems := make([]WorkItem, 0, len(acts))
	for _, act := range acts {
		workItems = append(workItems, WorkItem{
			ID:          act.ID,
			MilestoneID: act.MilestoneID,
			SubjectID:   act.SubjectID,
			CompletedAt: act.CompletedAt,
		})
	}

	progress, err := svc.curriculum.MilestoneProgress(ctx)
	if err != nil {
		return Plan{}, errors.Wrap(err, "loading milestone progress")
	}
	priorities := svc.ranker.Rank(progress, weekStart)
	deadlines := make(map[int]time.Time, len(progress))
	for _, mp := range progress {
		if mp.TargetDate != nil {
			deadlines[mp.MilestoneID] = *mp.TargetDate
		}
	}

	ws, err := svc.calendar.WeekState(ctx, weekStart)
	if err != nil {
		return Plan{}, errors.Wrap(err, "loading week state")
	}
	blocks := FilterAvailableBlocks(ws.Slots, ws.Events, ws.Unavailable, ws.Holidays)

	result := GenerateWeeklySchedule(Options{
		AvailableBlocks:     blocks,
		WorkItems:           workItems,
		MilestonePriorities: priorities,
		Pacing:              req.Pacing,
		PreserveBuffer:      preserve,
	})
	for _, a := range result.Evicted {
		svc.logger.Warn(fmt.Sprintf(
			"planner: activity %d evicted from %s slot %d to keep a buffer (week %s)",
			a.ActivityID, DayName(a.Day), a.SlotID, weekStart.Format(core.DateLayout),
		), map[string]interface{}{"activity_id": a.ActivityID, "slot_id": a.SlotID, "day": a.Day})
	}

	if err = CheckDeadlines(weekStart, result.Items, workItems, deadlines); err != nil {
		return Plan{}, err
	}

	plan := Plan{
		ID:             uuid.New(),
		WeekStart:      weekStart,
		Pacing:         req.Pacing,
		PreserveBuffer: preserve,
		GeneratedAt:    nowFunc().UTC(),
	}
	if err = svc.repo.ReplaceWeek(ctx, plan, result.Items); err != nil {
		if _, ok := errors.Cause(err).(*ReferenceError); ok {
			return Plan{}, errors.Cause(err)
		}
		return Plan{}, errors.Wrap(err, "saving lesson plan")
	}

	svc.logger.Info(fmt.Sprintf(
		"planner: week %s generated (%s, buffer=%t): %d blocks, %d assignments, %d buffers, %d pending",
		weekStart.Format(core.DateLayout), req.Pacing, preserve,
		len(blocks), len(result.Assignments()), len(result.Buffers()), len(workItems),
	))

	saved, err := svc.repo.GetPlan(ctx, weekStart)
	if err != nil {
		return Plan{}, errors.Wrap(err, "loading saved lesson plan")
	}
	saved.Evicted = len(result.Evicted)

	if req.Notify != nil && svc.conf.Planner.NotifyOnGenerate {
		if err = svc.NotifyPlanReady(saved, *req.Notify); err != nil {
			svc.logger.Error(fmt.Sprintf("planner: notifying %s: %v", req.Notify.Address, err), err)
		}
	}
	return saved, nil
}

// GetPlan returns the plan of the week `date` falls in.
func (svc *Service) GetPlan(ctx context.Context, date time.Time) (Plan, error) {
	return svc.repo.GetPlan(ctx, WeekStart(date))
}

func (svc *Service) DeletePlan(ctx context.Context, date time.Time) error {
	return svc.repo.DeletePlan(ctx, WeekStart(date))
}

// SubstitutePlan returns the planned items of `date` only.
func (svc *Service) SubstitutePlan(ctx context.Context, date time.Time) (DayPlan, error) {
	plan, err := svc.repo.GetPlan(ctx, WeekStart(date))
	if err != nil {
		return DayPlan{}, err
	}
	return plan.Day(WeekDay(date)), nil
}

// SendSubstitutePlan emails the substitute plan of `date`, with a CSV copy attached.
func (svc *Service) SendSubstitutePlan(ctx context.Context, date time.Time, to ...mail.Address) error {
	if len(to) == 0 {
		return core.NewFieldError("to", "at least one recipient is required")
	}
	day, err := svc.SubstitutePlan(ctx, date)
	if err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:           to,
		Subject:      "Substitute plan for " + day.Label(),
		TemplateName: "substitute_plan",
		TemplateData: day.emailData(),
	}
	csvContent, err := day.CSV()
	if err != nil {
		return errors.Wrap(err, "writing csv")
	}
	filename := fmt.Sprintf("substitute-plan-%s.csv", day.Date.Format(core.DateLayout))
	if err = msg.Attach(csvContent, filename, "text/csv"); err != nil {
		return errors.Wrap(err, "attaching csv")
	}

	svc.mailSvc.SendMessages(msg)
	return nil
}

// NotifyPlanReady emails a summary of `plan` to `to`.
func (svc *Service) NotifyPlanReady(plan Plan, to mail.Address) error {
	if to.Address == "" {
		return core.NewFieldError("to", "recipient has no email address")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      "Lesson plan for the week of " + plan.WeekStart.Format(core.DateLayout),
		TemplateName: "plan_ready",
		TemplateData: plan.emailData(to.Name),
	})
	return nil
}
