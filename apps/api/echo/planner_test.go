package echoapi_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mwalimu/core/curriculum"
	"github.com/trezcool/mwalimu/core/planner"
	"github.com/trezcool/mwalimu/core/timetable"
)

func intPtr(i int) *int { return &i }

// plannerFixture sets up Maths on Monday and Tuesday 09:00 of the week of 2021-03-08,
// with one pending activity due by `targetDate`.
func plannerFixture(t *testing.T, app *testApp, targetDate string) curriculum.Activity {
	t.Helper()
	ctx := context.Background()

	maths, err := app.curriculumSvc.CreateSubject(ctx, curriculum.NewSubject{Name: "Maths"})
	require.NoError(t, err)
	ms, err := app.curriculumSvc.CreateMilestone(ctx, curriculum.NewMilestone{SubjectID: maths.ID, Title: "Fractions", TargetDate: targetDate})
	require.NoError(t, err)
	act, err := app.curriculumSvc.CreateActivity(ctx, curriculum.NewActivity{MilestoneID: ms.ID, Title: "Halves", Notes: "paper plates"})
	require.NoError(t, err)

	for _, day := range []int{0, 1} {
		_, err = app.timetableSvc.CreateSlot(ctx, timetable.NewSlot{
			Day: intPtr(day), StartMin: intPtr(540), EndMin: intPtr(600), SubjectID: intPtr(maths.ID),
		})
		require.NoError(t, err)
	}
	return act
}

func Test_plannerApi_generate(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, app.createUser(t, "Amina", "amina"))

	runHTTPTests(t, app, []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/api/plans",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "nothing pending", method: http.MethodPost, path: "/api/plans", token: token,
			body:     []byte(`{"week_start":"2021-03-08"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "no activities available"}),
		},
		{
			name: "bad week_start", method: http.MethodPost, path: "/api/plans", token: token,
			body:     []byte(`{"week_start":"next week"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"week_start":"week_start must be a date formatted as YYYY-MM-DD"}`),
		},
		{
			name: "no plan yet", path: "/api/plans/2021-03-08", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "lesson plan not found"}),
		},
	})

	act := plannerFixture(t, app, "2021-03-31")

	runHTTPTests(t, app, []httpTest{
		{
			name: "bad pacing", method: http.MethodPost, path: "/api/plans", token: token,
			body:     []byte(`{"week_start":"2021-03-08","pacing_strategy":"lazy"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"pacing_strategy":"pacing_strategy must be one of [strict relaxed]"}`),
		},
	})

	var plan planner.Plan
	t.Run("generate (any day of the week)", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/plans", token, []byte(`{"week_start":"2021-03-10","pacing_strategy":"Strict"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &plan)

		assert.Equal(t, "2021-03-08", plan.WeekStart.Format("2006-01-02"))
		assert.Equal(t, planner.PacingStrict, plan.Pacing)
		require.Len(t, plan.Items, 1)
		require.NotNil(t, plan.Items[0].ActivityID)
		assert.Equal(t, act.ID, *plan.Items[0].ActivityID)
		assert.Equal(t, 0, plan.Items[0].Day)
		assert.Equal(t, "Maths", plan.Items[0].SubjectName)
	})

	t.Run("regenerate with buffers", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/plans", token, []byte(`{"week_start":"2021-03-08","preserve_buffer":true}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var withBuffers planner.Plan
		decode(t, rec, &withBuffers)

		assert.True(t, withBuffers.PreserveBuffer)
		assert.NotEqual(t, plan.ID, withBuffers.ID)
		for _, item := range withBuffers.Items {
			assert.True(t, item.IsBuffer(), "day %d slot %d", item.Day, item.SlotID)
		}
		assert.Equal(t, 1, withBuffers.Evicted)
	})

	t.Run("retrieve & delete", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/plans/2021-03-12", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = app.do(http.MethodDelete, "/api/plans/2021-03-08", token)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		rec = app.do(http.MethodGet, "/api/plans/2021-03-08", token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_plannerApi_deadlineConflict(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, app.createUser(t, "Amina", "amina"))
	ctx := context.Background()
	act := plannerFixture(t, app, "2021-03-08")

	// only Tuesday is left: the activity would be late
	slots, err := app.timetableSvc.QuerySlots(ctx)
	require.NoError(t, err)
	require.NoError(t, app.timetableSvc.DeleteSlot(ctx, slots[0].ID))

	rec := app.do(http.MethodPost, "/api/plans", token, []byte(`{"week_start":"2021-03-08"}`))
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	var resp struct {
		Error     string                     `json:"error"`
		Conflicts []planner.DeadlineConflict `json:"conflicts"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "deadline conflict", resp.Error)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, act.ID, resp.Conflicts[0].ActivityID)
	assert.Equal(t, 1, resp.Conflicts[0].Day)

	// nothing was saved
	rec = app.do(http.MethodGet, "/api/plans/2021-03-08", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_plannerApi_substitute(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, app.createUser(t, "Amina", "amina"))
	act := plannerFixture(t, app, "")

	rec := app.do(http.MethodPost, "/api/plans", token, []byte(`{"week_start":"2021-03-08"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("json", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/plans/2021-03-08/substitute", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var day planner.DayPlan
		decode(t, rec, &day)
		assert.Equal(t, 0, day.Day)
		require.Len(t, day.Items, 1)
		assert.Equal(t, act.ID, *day.Items[0].ActivityID)
	})

	t.Run("empty day", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/plans/2021-03-09/substitute", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var day planner.DayPlan
		decode(t, rec, &day)
		assert.Equal(t, 1, day.Day)
		assert.Empty(t, day.Items)
	})

	t.Run("csv", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/api/plans/2021-03-08/substitute?format=csv", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "substitute-plan-2021-03-08.csv")
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "start,end,subject,activity,notes,buffer", lines[0])
		assert.Equal(t, "09:00,10:00,Maths,Halves,paper plates,false", lines[1])
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "send without recipients", method: http.MethodPost, path: "/api/plans/2021-03-08/substitute/send", token: token,
			body: []byte(`{"to":[]}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"to":"at least one recipient is required"}`),
		},
		{
			name: "send to bad address", method: http.MethodPost, path: "/api/plans/2021-03-08/substitute/send", token: token,
			body: []byte(`{"to":["nope"]}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"to":"invalid email address: nope"}`),
		},
		{
			name: "bad date", path: "/api/plans/monday/substitute", token: token,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"date":"date must be a date formatted as YYYY-MM-DD"}`),
		},
	})

	t.Run("send", func(t *testing.T) {
		app.mailSvc.Reset()
		rec := app.do(http.MethodPost, "/api/plans/2021-03-08/substitute/send", token, []byte(`{"to":["Sub <sub@school.test>"]}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		sent := app.mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "sub@school.test", sent[0].To[0].Address)
		assert.True(t, sent[0].HasAttachments())
	})
}
