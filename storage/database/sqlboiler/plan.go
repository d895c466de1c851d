package boiledrepos

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/planner"
)

type planRepository struct {
	db core.DB
}

var _ planner.Repository = (*planRepository)(nil) // interface compliance check

func NewPlanRepository(db core.DB) *planRepository {
	return &planRepository{db: db}
}

type planRow struct {
	WeekStart      time.Time `boil:"week_start"`
	GenerationID   uuid.UUID `boil:"generation_id"`
	Pacing         string    `boil:"pacing"`
	PreserveBuffer bool      `boil:"preserve_buffer"`
	GeneratedAt    time.Time `boil:"generated_at"`
}

type planItemRow struct {
	Day           int         `boil:"day"`
	SlotID        int         `boil:"slot_id"`
	StartMin      int         `boil:"start_min"`
	EndMin        int         `boil:"end_min"`
	SubjectID     null.Int    `boil:"subject_id"`
	SubjectName   null.String `boil:"subject_name"`
	ActivityID    null.Int    `boil:"activity_id"`
	ActivityTitle null.String `boil:"activity_title"`
	ActivityNotes null.String `boil:"activity_notes"`
}

func (r planItemRow) unboil() planner.PlanItem {
	return planner.PlanItem{
		Day:           r.Day,
		SlotID:        r.SlotID,
		StartMin:      r.StartMin,
		EndMin:        r.EndMin,
		SubjectID:     r.SubjectID.Ptr(),
		SubjectName:   r.SubjectName.String,
		ActivityID:    r.ActivityID.Ptr(),
		ActivityTitle: r.ActivityTitle.String,
		ActivityNotes: r.ActivityNotes.String,
	}
}

// checkReferences returns a *planner.ReferenceError listing the slots, then the activities, of `items` that are gone.
func checkReferences(ctx context.Context, exec core.DBExecutor, items []planner.ScheduleItem) error {
	slotIDs := make([]int, 0, len(items))
	actIDs := make([]int, 0, len(items))
	for _, item := range items {
		slotIDs = append(slotIDs, item.At().SlotID)
		if id, ok := planner.ActivityID(item); ok {
			actIDs = append(actIDs, id)
		}
	}

	missing := func(table string, ids []int) (*planner.ReferenceError, error) {
		found, err := existingIDs(ctx, exec, table, ids)
		if err != nil {
			return nil, errors.Wrapf(err, "checking %s", table)
		}
		var gone []int
		for _, id := range ids {
			if !found[id] {
				gone = append(gone, id)
			}
		}
		if len(gone) == 0 {
			return nil, nil
		}
		sort.Ints(gone)
		return &planner.ReferenceError{IDs: gone}, nil
	}

	refErr, err := missing("timetable_slot", slotIDs)
	if err != nil {
		return err
	}
	if refErr != nil {
		refErr.Table = "timetable slots"
		return refErr
	}
	if refErr, err = missing("activity", actIDs); err != nil {
		return err
	}
	if refErr != nil {
		refErr.Table = "activities"
		return refErr
	}
	return nil
}

// ReplaceWeek runs in a serializable transaction, retried on serialization failures.
func (repo planRepository) ReplaceWeek(ctx context.Context, plan planner.Plan, items []planner.ScheduleItem) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		if err = repo.replaceWeek(ctx, plan, items); !isCode(err, serializationFailure) {
			return err
		}
	}
	return err
}

func (repo planRepository) replaceWeek(ctx context.Context, plan planner.Plan, items []planner.ScheduleItem) (err error) {
	tx, err := repo.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = errors.Wrap(tx.Commit(), "committing lesson plan")
	}()

	if err = checkReferences(ctx, tx, items); err != nil {
		return err
	}

	weekStart := plan.WeekStart.UTC()
	if _, err = queries.Raw(`DELETE FROM lesson_plan WHERE week_start = $1`, weekStart).ExecContext(ctx, tx); err != nil {
		return errors.Wrap(err, "deleting previous lesson plan")
	}

	q := `INSERT INTO lesson_plan (week_start, generation_id, pacing, preserve_buffer, generated_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = queries.Raw(q, weekStart, plan.ID, string(plan.Pacing), plan.PreserveBuffer, plan.GeneratedAt.UTC()).ExecContext(ctx, tx)
	if err != nil {
		return errors.Wrap(err, "inserting lesson plan")
	}

	if len(items) == 0 {
		return nil
	}
	const cols = 4
	args := make([]interface{}, 0, len(items)*cols)
	for _, item := range items {
		at := item.At()
		actID := null.Int{}
		if id, ok := planner.ActivityID(item); ok {
			actID = null.IntFrom(id)
		}
		args = append(args, weekStart, at.Day, at.SlotID, actID)
	}
	q = `INSERT INTO lesson_plan_item (week_start, day, slot_id, activity_id) VALUES ` +
		strmangle.Placeholders(true, len(args), 1, cols)
	if _, err = queries.Raw(q, args...).ExecContext(ctx, tx); err != nil {
		return errors.Wrap(err, "inserting lesson plan items")
	}
	return nil
}

func (repo planRepository) GetPlan(ctx context.Context, weekStart time.Time) (planner.Plan, error) {
	var r planRow
	q := `SELECT week_start, generation_id, pacing, preserve_buffer, generated_at FROM lesson_plan WHERE week_start = $1`
	if err := queries.Raw(q, weekStart.UTC()).Bind(ctx, repo.db, &r); err != nil {
		return planner.Plan{}, trapNoRowsErr(err, planner.ErrPlanNotFound, "finding lesson plan")
	}

	var rows []planItemRow
	q = `SELECT i.day, s.id AS slot_id, s.start_min, s.end_min, s.subject_id, sub.name AS subject_name,
		i.activity_id, a.title AS activity_title, a.notes AS activity_notes
		FROM lesson_plan_item i
		JOIN timetable_slot s ON s.id = i.slot_id
		LEFT JOIN subject sub ON sub.id = s.subject_id
		LEFT JOIN activity a ON a.id = i.activity_id
		WHERE i.week_start = $1
		ORDER BY i.day, s.start_min, s.id`
	if err := queries.Raw(q, weekStart.UTC()).Bind(ctx, repo.db, &rows); err != nil {
		return planner.Plan{}, errors.Wrap(err, "querying lesson plan items")
	}

	plan := planner.Plan{
		ID:             r.GenerationID,
		WeekStart:      r.WeekStart.UTC(),
		Pacing:         planner.Pacing(r.Pacing),
		PreserveBuffer: r.PreserveBuffer,
		GeneratedAt:    r.GeneratedAt.UTC(),
		Items:          make([]planner.PlanItem, 0, len(rows)),
	}
	for _, row := range rows {
		plan.Items = append(plan.Items, row.unboil())
	}
	return plan, nil
}

func (repo planRepository) DeletePlan(ctx context.Context, weekStart time.Time) error {
	res, err := queries.Raw(`DELETE FROM lesson_plan WHERE week_start = $1`, weekStart.UTC()).ExecContext(ctx, repo.db)
	return checkAffected(res, err, planner.ErrPlanNotFound, "deleting lesson plan")
}
