package timetable_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/curriculum"
	"github.com/trezcool/mwalimu/core/timetable"
	inmemdb "github.com/trezcool/mwalimu/storage/database/inmem"
)

// 2021-03-08 is a Monday
var monday = time.Date(2021, time.March, 8, 0, 0, 0, 0, time.UTC)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func intPtr(i int) *int { return &i }

func newServices(t *testing.T) (*timetable.Service, *curriculum.Service, curriculum.Subject) {
	db := inmemdb.Open()
	cur := curriculum.NewService(inmemdb.NewCurriculumRepository(db), nopLogger{})
	subj, err := cur.CreateSubject(context.Background(), curriculum.NewSubject{Name: "Maths"})
	require.NoError(t, err)
	return timetable.NewService(inmemdb.NewTimetableRepository(db), cur, nopLogger{}), cur, subj
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	verr, ok := err.(*core.ValidationError)
	require.True(t, ok, "expected *core.ValidationError, got %T (%v)", err, err)
	require.NotEmpty(t, verr.Fields)
	return verr.Fields[0].Field
}

func TestService_Slots(t *testing.T) {
	svc, cur, subj := newServices(t)
	ctx := context.Background()

	newSlot := func(day, start, end int, subjectID *int) timetable.NewSlot {
		return timetable.NewSlot{Day: intPtr(day), StartMin: intPtr(start), EndMin: intPtr(end), SubjectID: subjectID}
	}

	tue, err := svc.CreateSlot(ctx, newSlot(1, 540, 600, &subj.ID))
	require.NoError(t, err)
	mon, err := svc.CreateSlot(ctx, newSlot(0, 600, 660, nil))
	require.NoError(t, err)
	early, err := svc.CreateSlot(ctx, newSlot(0, 540, 600, &subj.ID))
	require.NoError(t, err)

	tests := []struct {
		name      string
		ns        timetable.NewSlot
		wantField string
	}{
		{name: "unknown subject", ns: newSlot(2, 540, 600, intPtr(42)), wantField: "subject_id"},
		{name: "overlapping slot", ns: newSlot(1, 570, 630, nil), wantField: "start_min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSlot(ctx, tt.ns)
			assert.Equal(t, tt.wantField, fieldOf(t, err))
		})
	}

	slots, err := svc.QuerySlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{early.ID, mon.ID, tue.ID}, []int{slots[0].ID, slots[1].ID, slots[2].ID})

	// a slot may be moved over its own previous range
	moved, err := svc.UpdateSlot(ctx, tue.ID, newSlot(1, 570, 630, &subj.ID))
	require.NoError(t, err)
	assert.Equal(t, 570, moved.StartMin)

	_, err = svc.UpdateSlot(ctx, mon.ID, newSlot(0, 570, 630, nil))
	assert.Equal(t, "start_min", fieldOf(t, err))

	// deleting the subject clears the affinity
	require.NoError(t, cur.DeleteSubject(ctx, subj.ID))
	slot, err := svc.GetSlot(ctx, tue.ID)
	require.NoError(t, err)
	assert.Nil(t, slot.SubjectID)

	require.NoError(t, svc.DeleteSlot(ctx, tue.ID))
	_, err = svc.GetSlot(ctx, tue.ID)
	assert.Equal(t, timetable.ErrSlotNotFound, err)
}

func TestService_Calendar(t *testing.T) {
	svc, _, _ := newServices(t)
	ctx := context.Background()

	_, err := svc.CreateHoliday(ctx, timetable.NewHoliday{Date: "2021-03-10", Name: "Founders day"})
	require.NoError(t, err)
	_, err = svc.CreateHoliday(ctx, timetable.NewHoliday{Date: "2021-03-10", Name: "Again"})
	assert.Equal(t, "date", fieldOf(t, err))
	_, err = svc.CreateHoliday(ctx, timetable.NewHoliday{Date: "2021-03-17", Name: "Next week"})
	require.NoError(t, err)

	_, err = svc.CreateUnavailableBlock(ctx, timetable.NewUnavailableBlock{Date: "2021-03-09", StartMin: intPtr(540), EndMin: intPtr(600)})
	require.NoError(t, err)
	_, err = svc.CreateUnavailableBlock(ctx, timetable.NewUnavailableBlock{Date: "2021-03-15", StartMin: intPtr(540), EndMin: intPtr(600)})
	require.NoError(t, err)

	// a trip from the previous friday to tuesday morning
	trip, err := svc.CreateEvent(ctx, timetable.NewEvent{
		Title: "Trip",
		Start: monday.AddDate(0, 0, -3).Add(8 * time.Hour),
		End:   monday.AddDate(0, 0, 1).Add(10 * time.Hour),
	})
	require.NoError(t, err)
	// ends exactly when the week starts
	_, err = svc.CreateEvent(ctx, timetable.NewEvent{Title: "Late", Start: monday.Add(-2 * time.Hour), End: monday})
	require.NoError(t, err)
	assembly, err := svc.CreateEvent(ctx, timetable.NewEvent{
		Title: "Assembly",
		Start: monday.AddDate(0, 0, 4).Add(9 * time.Hour),
		End:   monday.AddDate(0, 0, 4).Add(10 * time.Hour),
	})
	require.NoError(t, err)

	ws, err := svc.WeekState(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, monday.AddDate(0, 0, 7), ws.Range.To)
	require.Len(t, ws.Holidays, 1)
	assert.Equal(t, "Founders day", ws.Holidays[0].Name)
	require.Len(t, ws.Unavailable, 1)
	assert.Equal(t, monday.AddDate(0, 0, 1), ws.Unavailable[0].Date)

	require.Len(t, ws.Events, 2)
	assert.Equal(t, trip.ID, ws.Events[0].ID)
	assert.Equal(t, monday, ws.Events[0].Start, "clipped to the week")
	assert.Equal(t, trip.End, ws.Events[0].End)
	assert.Equal(t, assembly.ID, ws.Events[1].ID)

	events, err := svc.QueryEvents(ctx, timetable.QueryFilter{From: monday.AddDate(0, 0, 3)})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, assembly.ID, events[0].ID)

	require.NoError(t, svc.DeleteEvent(ctx, assembly.ID))
	assert.Equal(t, timetable.ErrEventNotFound, svc.DeleteEvent(ctx, assembly.ID))
}
