package curriculum

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
)

var (
	// errors
	ErrSubjectNotFound   = core.NewNotFoundError("subject not found")
	ErrMilestoneNotFound = core.NewNotFoundError("milestone not found")
	ErrActivityNotFound  = core.NewNotFoundError("activity not found")
	ErrSubjectExists     = errors.New("a subject with this name already exists")

	nowFunc = time.Now
)

type (
	Repository interface {
		// CheckSubjectUniqueness returns ErrSubjectExists if another subject (other than excludedID) is named `name`.
		CheckSubjectUniqueness(ctx context.Context, name string, excludedID int) error
		CreateSubject(ctx context.Context, subj Subject) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubject(ctx context.Context, id int) (Subject, error)
		UpdateSubject(ctx context.Context, subj Subject) (Subject, error)
		DeleteSubject(ctx context.Context, id int) error

		CreateMilestone(ctx context.Context, ms Milestone) (Milestone, error)
		// QueryMilestones returns all milestones, or only those of `subjectID` if non-zero.
		QueryMilestones(ctx context.Context, subjectID int) ([]Milestone, error)
		GetMilestone(ctx context.Context, id int) (Milestone, error)
		UpdateMilestone(ctx context.Context, ms Milestone) (Milestone, error)
		DeleteMilestone(ctx context.Context, id int) error

		CreateActivity(ctx context.Context, act Activity) (Activity, error)
		// QueryActivities returns activities ordered by milestone, order index then ID.
		QueryActivities(ctx context.Context, filter ActivityFilter) ([]Activity, error)
		GetActivity(ctx context.Context, id int) (Activity, error)
		UpdateActivity(ctx context.Context, act Activity) (Activity, error)
		DeleteActivity(ctx context.Context, id int) error

		// MilestoneProgress returns the activity counts of every milestone, including empty ones.
		MilestoneProgress(ctx context.Context) ([]MilestoneProgress, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, logger: logger}
}

func (svc *Service) checkSubjectUniqueness(ctx context.Context, name string, excludedID int) error {
	if err := svc.repo.CheckSubjectUniqueness(ctx, name, excludedID); err != nil {
		if err == ErrSubjectExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return errors.Wrap(err, "checking subject uniqueness")
	}
	return nil
}

// Subjects

func (svc *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	if err := svc.checkSubjectUniqueness(ctx, ns.Name, 0); err != nil {
		return Subject{}, err
	}
	now := nowFunc().UTC()
	return svc.repo.CreateSubject(ctx, Subject{Name: ns.Name, CreatedAt: now, UpdatedAt: now})
}

func (svc *Service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *Service) GetSubject(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *Service) SubjectExists(ctx context.Context, id int) (bool, error) {
	if _, err := svc.repo.GetSubject(ctx, id); err != nil {
		if core.IsNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "finding subject")
	}
	return true, nil
}

func (svc *Service) UpdateSubject(ctx context.Context, id int, ns NewSubject) (Subject, error) {
	subj, err := svc.repo.GetSubject(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	if err = svc.checkSubjectUniqueness(ctx, ns.Name, id); err != nil {
		return Subject{}, err
	}
	subj.Name = ns.Name
	subj.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateSubject(ctx, subj)
}

// DeleteSubject deletes the subject with its milestones and their activities.
func (svc *Service) DeleteSubject(ctx context.Context, id int) error {
	return svc.repo.DeleteSubject(ctx, id)
}

// Milestones

func (svc *Service) CreateMilestone(ctx context.Context, nm NewMilestone) (Milestone, error) {
	if _, err := svc.repo.GetSubject(ctx, nm.SubjectID); err != nil {
		if core.IsNotFound(err) {
			return Milestone{}, core.NewFieldError("subject_id", err.Error())
		}
		return Milestone{}, errors.Wrap(err, "finding subject")
	}

	now := nowFunc().UTC()
	ms := Milestone{
		SubjectID:   nm.SubjectID,
		Title:       nm.Title,
		Description: nm.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if nm.TargetDate != "" {
		date, err := core.ParseDate(nm.TargetDate)
		if err != nil {
			return Milestone{}, core.NewFieldError("target_date", err.Error())
		}
		ms.TargetDate = &date
	}
	return svc.repo.CreateMilestone(ctx, ms)
}

func (svc *Service) QueryMilestones(ctx context.Context, subjectID int) ([]Milestone, error) {
	return svc.repo.QueryMilestones(ctx, subjectID)
}

func (svc *Service) GetMilestone(ctx context.Context, id int) (Milestone, error) {
	return svc.repo.GetMilestone(ctx, id)
}

func (svc *Service) UpdateMilestone(ctx context.Context, id int, um UpdateMilestone) (Milestone, error) {
	ms, err := svc.repo.GetMilestone(ctx, id)
	if err != nil {
		return Milestone{}, err
	}

	if um.Title != "" {
		ms.Title = um.Title
	}
	if um.Description != nil {
		ms.Description = *um.Description
	}
	switch {
	case um.ClearTargetDate:
		ms.TargetDate = nil
	case um.TargetDate != "":
		date, err := core.ParseDate(um.TargetDate)
		if err != nil {
			return Milestone{}, core.NewFieldError("target_date", err.Error())
		}
		ms.TargetDate = &date
	}
	ms.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateMilestone(ctx, ms)
}

func (svc *Service) DeleteMilestone(ctx context.Context, id int) error {
	return svc.repo.DeleteMilestone(ctx, id)
}

// Activities

func (svc *Service) CreateActivity(ctx context.Context, na NewActivity) (Activity, error) {
	ms, err := svc.repo.GetMilestone(ctx, na.MilestoneID)
	if err != nil {
		if core.IsNotFound(err) {
			return Activity{}, core.NewFieldError("milestone_id", err.Error())
		}
		return Activity{}, errors.Wrap(err, "finding milestone")
	}

	now := nowFunc().UTC()
	return svc.repo.CreateActivity(ctx, Activity{
		MilestoneID:  ms.ID,
		SubjectID:    ms.SubjectID,
		Title:        na.Title,
		Notes:        na.Notes,
		DurationMins: na.DurationMins,
		OrderIndex:   na.OrderIndex,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) QueryActivities(ctx context.Context, filter ActivityFilter) ([]Activity, error) {
	return svc.repo.QueryActivities(ctx, filter)
}

func (svc *Service) GetActivity(ctx context.Context, id int) (Activity, error) {
	return svc.repo.GetActivity(ctx, id)
}

func (svc *Service) UpdateActivity(ctx context.Context, id int, ua UpdateActivity) (Activity, error) {
	act, err := svc.repo.GetActivity(ctx, id)
	if err != nil {
		return Activity{}, err
	}

	if ua.MilestoneID != nil && *ua.MilestoneID != act.MilestoneID {
		ms, err := svc.repo.GetMilestone(ctx, *ua.MilestoneID)
		if err != nil {
			if core.IsNotFound(err) {
				return Activity{}, core.NewFieldError("milestone_id", err.Error())
			}
			return Activity{}, errors.Wrap(err, "finding milestone")
		}
		act.MilestoneID = ms.ID
		act.SubjectID = ms.SubjectID
	}
	if ua.Title != "" {
		act.Title = ua.Title
	}
	if ua.Notes != nil {
		act.Notes = *ua.Notes
	}
	if ua.DurationMins != nil {
		act.DurationMins = *ua.DurationMins
	}
	if ua.OrderIndex != nil {
		act.OrderIndex = *ua.OrderIndex
	}
	act.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateActivity(ctx, act)
}

// CompleteActivity marks the activity done; it will no longer be scheduled.
func (svc *Service) CompleteActivity(ctx context.Context, id int) (Activity, error) {
	act, err := svc.repo.GetActivity(ctx, id)
	if err != nil {
		return Activity{}, err
	}
	if !act.Pending() {
		return act, nil
	}
	now := nowFunc().UTC()
	act.CompletedAt = &now
	act.UpdatedAt = now
	return svc.repo.UpdateActivity(ctx, act)
}

// ReopenActivity makes a completed activity pending again.
func (svc *Service) ReopenActivity(ctx context.Context, id int) (Activity, error) {
	act, err := svc.repo.GetActivity(ctx, id)
	if err != nil {
		return Activity{}, err
	}
	if act.Pending() {
		return act, nil
	}
	act.CompletedAt = nil
	act.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateActivity(ctx, act)
}

func (svc *Service) DeleteActivity(ctx context.Context, id int) error {
	return svc.repo.DeleteActivity(ctx, id)
}

// PendingActivities returns every activity not completed yet, joined to its subject.
func (svc *Service) PendingActivities(ctx context.Context) ([]Activity, error) {
	pending := true
	acts, err := svc.repo.QueryActivities(ctx, ActivityFilter{Pending: &pending})
	if err != nil {
		return nil, errors.Wrap(err, "querying pending activities")
	}
	return acts, nil
}

func (svc *Service) MilestoneProgress(ctx context.Context) ([]MilestoneProgress, error) {
	progress, err := svc.repo.MilestoneProgress(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying milestone progress")
	}
	return progress, nil
}
