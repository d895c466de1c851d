package boiledrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/curriculum"
)

type curriculumRepository struct {
	exec core.DBExecutor
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(exec core.DBExecutor) *curriculumRepository {
	return &curriculumRepository{exec: exec}
}

func timePtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	tt := t.Time.UTC()
	return &tt
}

// dateFromPtr keeps DATE values at midnight UTC.
func dateFromPtr(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

// Subjects

type subjectRow struct {
	ID        int       `boil:"id"`
	Name      string    `boil:"name"`
	CreatedAt time.Time `boil:"created_at"`
	UpdatedAt time.Time `boil:"updated_at"`
}

func (r subjectRow) unboil() curriculum.Subject {
	return curriculum.Subject{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()}
}

func (repo curriculumRepository) trapSubjectExists(err error, msg string) error {
	if isCode(err, uniqueViolation) {
		return curriculum.ErrSubjectExists
	}
	return errors.Wrap(err, msg)
}

func (repo curriculumRepository) CheckSubjectUniqueness(ctx context.Context, name string, excludedID int) error {
	var cnt struct {
		N int `boil:"n"`
	}
	q := `SELECT COUNT(*) AS n FROM subject WHERE LOWER(name) = LOWER($1) AND id <> $2`
	if err := queries.Raw(q, name, excludedID).Bind(ctx, repo.exec, &cnt); err != nil {
		return errors.Wrap(err, "checking subject uniqueness")
	}
	if cnt.N > 0 {
		return curriculum.ErrSubjectExists
	}
	return nil
}

func (repo curriculumRepository) CreateSubject(ctx context.Context, subj curriculum.Subject) (curriculum.Subject, error) {
	var r subjectRow
	q := `INSERT INTO subject (name, created_at, updated_at) VALUES ($1, $2, $3)
		RETURNING id, name, created_at, updated_at`
	if err := queries.Raw(q, subj.Name, subj.CreatedAt.UTC(), subj.UpdatedAt.UTC()).Bind(ctx, repo.exec, &r); err != nil {
		return curriculum.Subject{}, repo.trapSubjectExists(err, "inserting subject")
	}
	return r.unboil(), nil
}

func (repo curriculumRepository) QuerySubjects(ctx context.Context) ([]curriculum.Subject, error) {
	var rows []subjectRow
	q := `SELECT id, name, created_at, updated_at FROM subject ORDER BY name, id`
	if err := queries.Raw(q).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]curriculum.Subject, 0, len(rows))
	for _, r := range rows {
		subjects = append(subjects, r.unboil())
	}
	return subjects, nil
}

func (repo curriculumRepository) GetSubject(ctx context.Context, id int) (curriculum.Subject, error) {
	var r subjectRow
	q := `SELECT id, name, created_at, updated_at FROM subject WHERE id = $1`
	if err := queries.Raw(q, id).Bind(ctx, repo.exec, &r); err != nil {
		return curriculum.Subject{}, trapNoRowsErr(err, curriculum.ErrSubjectNotFound, "finding subject")
	}
	return r.unboil(), nil
}

func (repo curriculumRepository) UpdateSubject(ctx context.Context, subj curriculum.Subject) (curriculum.Subject, error) {
	var r subjectRow
	q := `UPDATE subject SET name = $2, updated_at = $3 WHERE id = $1
		RETURNING id, name, created_at, updated_at`
	if err := queries.Raw(q, subj.ID, subj.Name, subj.UpdatedAt.UTC()).Bind(ctx, repo.exec, &r); err != nil {
		if isCode(err, uniqueViolation) {
			return curriculum.Subject{}, curriculum.ErrSubjectExists
		}
		return curriculum.Subject{}, trapNoRowsErr(err, curriculum.ErrSubjectNotFound, "updating subject")
	}
	return r.unboil(), nil
}

// DeleteSubject relies on the foreign keys to drop milestones, activities & plan items and to clear slots.
func (repo curriculumRepository) DeleteSubject(ctx context.Context, id int) error {
	res, err := queries.Raw(`DELETE FROM subject WHERE id = $1`, id).ExecContext(ctx, repo.exec)
	return checkAffected(res, err, curriculum.ErrSubjectNotFound, "deleting subject")
}

// Milestones

const milestoneColumns = `id, subject_id, title, description, target_date, created_at, updated_at`

type milestoneRow struct {
	ID          int       `boil:"id"`
	SubjectID   int       `boil:"subject_id"`
	Title       string    `boil:"title"`
	Description string    `boil:"description"`
	TargetDate  null.Time `boil:"target_date"`
	CreatedAt   time.Time `boil:"created_at"`
	UpdatedAt   time.Time `boil:"updated_at"`
}

func (r milestoneRow) unboil() curriculum.Milestone {
	return curriculum.Milestone{
		ID:          r.ID,
		SubjectID:   r.SubjectID,
		Title:       r.Title,
		Description: r.Description,
		TargetDate:  timePtr(r.TargetDate),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (repo curriculumRepository) CreateMilestone(ctx context.Context, ms curriculum.Milestone) (curriculum.Milestone, error) {
	var r milestoneRow
	q := `INSERT INTO milestone (subject_id, title, description, target_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + milestoneColumns
	err := queries.Raw(q, ms.SubjectID, ms.Title, ms.Description, dateFromPtr(ms.TargetDate), ms.CreatedAt.UTC(), ms.UpdatedAt.UTC()).
		Bind(ctx, repo.exec, &r)
	if err != nil {
		if isCode(err, foreignKeyViolation) {
			return curriculum.Milestone{}, curriculum.ErrSubjectNotFound
		}
		return curriculum.Milestone{}, errors.Wrap(err, "inserting milestone")
	}
	return r.unboil(), nil
}

func (repo curriculumRepository) QueryMilestones(ctx context.Context, subjectID int) ([]curriculum.Milestone, error) {
	var rows []milestoneRow
	q := `SELECT ` + milestoneColumns + ` FROM milestone WHERE $1 = 0 OR subject_id = $1 ORDER BY id`
	if err := queries.Raw(q, subjectID).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying milestones")
	}
	milestones := make([]curriculum.Milestone, 0, len(rows))
	for _, r := range rows {
		milestones = append(milestones, r.unboil())
	}
	return milestones, nil
}

func (repo curriculumRepository) GetMilestone(ctx context.Context, id int) (curriculum.Milestone, error) {
	var r milestoneRow
	q := `SELECT ` + milestoneColumns + ` FROM milestone WHERE id = $1`
	if err := queries.Raw(q, id).Bind(ctx, repo.exec, &r); err != nil {
		return curriculum.Milestone{}, trapNoRowsErr(err, curriculum.ErrMilestoneNotFound, "finding milestone")
	}
	return r.unboil(), nil
}

func (repo curriculumRepository) UpdateMilestone(ctx context.Context, ms curriculum.Milestone) (curriculum.Milestone, error) {
	var r milestoneRow
	q := `UPDATE milestone SET title = $2, description = $3, target_date = $4, updated_at = $5
		WHERE id = $1 RETURNING ` + milestoneColumns
	err := queries.Raw(q, ms.ID, ms.Title, ms.Description, dateFromPtr(ms.TargetDate), ms.UpdatedAt.UTC()).
		Bind(ctx, repo.exec, &r)
	if err != nil {
		return curriculum.Milestone{}, trapNoRowsErr(err, curriculum.ErrMilestoneNotFound, "updating milestone")
	}
	return r.unboil(), nil
}

func (repo curriculumRepository) DeleteMilestone(ctx context.Context, id int) error {
	res, err := queries.Raw(`DELETE FROM milestone WHERE id = $1`, id).ExecContext(ctx, repo.exec)
	return checkAffected(res, err, curriculum.ErrMilestoneNotFound, "deleting milestone")
}

// Activities

const activitySelect = `SELECT a.id, a.milestone_id, m.subject_id, a.title, a.notes, a.duration_mins, a.order_index,
	a.completed_at, a.created_at, a.updated_at
	FROM activity a JOIN milestone m ON m.id = a.milestone_id`

type activityRow struct {
	ID           int       `boil:"id"`
	MilestoneID  int       `boil:"milestone_id"`
	SubjectID    int       `boil:"subject_id"`
	Title        string    `boil:"title"`
	Notes        string    `boil:"notes"`
	DurationMins int       `boil:"duration_mins"`
	OrderIndex   int       `boil:"order_index"`
	CompletedAt  null.Time `boil:"completed_at"`
	CreatedAt    time.Time `boil:"created_at"`
	UpdatedAt    time.Time `boil:"updated_at"`
}

func (r activityRow) unboil() curriculum.Activity {
	return curriculum.Activity{
		ID:           r.ID,
		MilestoneID:  r.MilestoneID,
		SubjectID:    r.SubjectID,
		Title:        r.Title,
		Notes:        r.Notes,
		DurationMins: r.DurationMins,
		OrderIndex:   r.OrderIndex,
		CompletedAt:  timePtr(r.CompletedAt),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func (repo curriculumRepository) CreateActivity(ctx context.Context, act curriculum.Activity) (curriculum.Activity, error) {
	var inserted struct {
		ID int `boil:"id"`
	}
	q := `INSERT INTO activity (milestone_id, title, notes, duration_mins, order_index, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := queries.Raw(q,
		act.MilestoneID, act.Title, act.Notes, act.DurationMins, act.OrderIndex,
		null.TimeFromPtr(act.CompletedAt), act.CreatedAt.UTC(), act.UpdatedAt.UTC(),
	).Bind(ctx, repo.exec, &inserted)
	if err != nil {
		if isCode(err, foreignKeyViolation) {
			return curriculum.Activity{}, curriculum.ErrMilestoneNotFound
		}
		return curriculum.Activity{}, errors.Wrap(err, "inserting activity")
	}
	return repo.GetActivity(ctx, inserted.ID)
}

func (repo curriculumRepository) QueryActivities(ctx context.Context, filter curriculum.ActivityFilter) ([]curriculum.Activity, error) {
	q := activitySelect + ` WHERE ($1 = 0 OR m.subject_id = $1) AND ($2 = 0 OR a.milestone_id = $2)
		AND ($3::boolean IS NULL OR (a.completed_at IS NULL) = $3::boolean)
		ORDER BY a.milestone_id, a.order_index, a.id`

	var rows []activityRow
	if err := queries.Raw(q, filter.SubjectID, filter.MilestoneID, null.BoolFromPtr(filter.Pending)).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	acts := make([]curriculum.Activity, 0, len(rows))
	for _, r := range rows {
		acts = append(acts, r.unboil())
	}
	return acts, nil
}

func (repo curriculumRepository) GetActivity(ctx context.Context, id int) (curriculum.Activity, error) {
	var r activityRow
	if err := queries.Raw(activitySelect+` WHERE a.id = $1`, id).Bind(ctx, repo.exec, &r); err != nil {
		return curriculum.Activity{}, trapNoRowsErr(err, curriculum.ErrActivityNotFound, "finding activity")
	}
	return r.unboil(), nil
}

func (repo curriculumRepository) UpdateActivity(ctx context.Context, act curriculum.Activity) (curriculum.Activity, error) {
	q := `UPDATE activity SET milestone_id = $2, title = $3, notes = $4, duration_mins = $5, order_index = $6,
		completed_at = $7, updated_at = $8 WHERE id = $1`
	res, err := queries.Raw(q,
		act.ID, act.MilestoneID, act.Title, act.Notes, act.DurationMins, act.OrderIndex,
		null.TimeFromPtr(act.CompletedAt), act.UpdatedAt.UTC(),
	).ExecContext(ctx, repo.exec)
	if isCode(err, foreignKeyViolation) {
		return curriculum.Activity{}, curriculum.ErrMilestoneNotFound
	}
	if err = checkAffected(res, err, curriculum.ErrActivityNotFound, "updating activity"); err != nil {
		return curriculum.Activity{}, err
	}
	return repo.GetActivity(ctx, act.ID)
}

func (repo curriculumRepository) DeleteActivity(ctx context.Context, id int) error {
	res, err := queries.Raw(`DELETE FROM activity WHERE id = $1`, id).ExecContext(ctx, repo.exec)
	return checkAffected(res, err, curriculum.ErrActivityNotFound, "deleting activity")
}

func (repo curriculumRepository) MilestoneProgress(ctx context.Context) ([]curriculum.MilestoneProgress, error) {
	var rows []struct {
		MilestoneID int       `boil:"milestone_id"`
		SubjectID   int       `boil:"subject_id"`
		TargetDate  null.Time `boil:"target_date"`
		Total       int       `boil:"total"`
		Completed   int       `boil:"completed"`
	}
	q := `SELECT m.id AS milestone_id, m.subject_id, m.target_date,
		COUNT(a.id) AS total, COUNT(a.completed_at) AS completed
		FROM milestone m LEFT JOIN activity a ON a.milestone_id = m.id
		GROUP BY m.id ORDER BY m.id`
	if err := queries.Raw(q).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying milestone progress")
	}

	progress := make([]curriculum.MilestoneProgress, 0, len(rows))
	for _, r := range rows {
		progress = append(progress, curriculum.MilestoneProgress{
			MilestoneID: r.MilestoneID,
			SubjectID:   r.SubjectID,
			TargetDate:  timePtr(r.TargetDate),
			Total:       r.Total,
			Completed:   r.Completed,
		})
	}
	return progress, nil
}
