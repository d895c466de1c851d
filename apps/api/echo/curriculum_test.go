package echoapi_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mwalimu/core/curriculum"
)

func Test_curriculumApi_subjects(t *testing.T) {
	app := setup(t)
	ctx := context.Background()
	token := app.getToken(t, app.createUser(t, "Amina", "amina"))

	science, err := app.curriculumSvc.CreateSubject(ctx, curriculum.NewSubject{Name: "Science"})
	require.NoError(t, err)
	maths, err := app.curriculumSvc.CreateSubject(ctx, curriculum.NewSubject{Name: "Maths"})
	require.NoError(t, err)
	mathsPath := "/api/subjects/" + strconv.Itoa(maths.ID)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/api/subjects", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "list", path: "/api/subjects", token: token, wantCode: http.StatusOK, wantData: marchallList(t, maths, science)},
		{name: "detail", path: mathsPath, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, maths)},
		{
			name: "detail (unknown)", path: "/api/subjects/999", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "subject not found"}),
		},
		{
			name: "detail (bad id)", path: "/api/subjects/abc", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "name required", method: http.MethodPost, path: "/api/subjects", token: token,
			body: []byte(`{"name":"  "}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"name":"this field is required"}`),
		},
		{
			name: "name taken (any case)", method: http.MethodPost, path: "/api/subjects", token: token,
			body:     []byte(`{"name":"maths"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"name":"a subject with this name already exists"}`),
		},
		{
			name: "rename to taken", method: http.MethodPut, path: mathsPath, token: token,
			body:     []byte(`{"name":"Science"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"name":"a subject with this name already exists"}`),
		},
	})

	t.Run("create, rename & delete", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/subjects", token, []byte(`{"name":" History "}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var subj curriculum.Subject
		decode(t, rec, &subj)
		assert.Equal(t, "History", subj.Name)

		path := "/api/subjects/" + strconv.Itoa(subj.ID)
		rec = app.do(http.MethodPut, path, token, []byte(`{"name":"Geography"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &subj)
		assert.Equal(t, "Geography", subj.Name)

		rec = app.do(http.MethodDelete, path, token)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		rec = app.do(http.MethodGet, path, token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_curriculumApi_milestonesAndActivities(t *testing.T) {
	app := setup(t)
	ctx := context.Background()
	token := app.getToken(t, app.createUser(t, "Amina", "amina"))

	maths, err := app.curriculumSvc.CreateSubject(ctx, curriculum.NewSubject{Name: "Maths"})
	require.NoError(t, err)

	var ms curriculum.Milestone
	t.Run("create milestone", func(t *testing.T) {
		body := `{"subject_id":` + strconv.Itoa(maths.ID) + `,"title":"Fractions","target_date":"2021-03-12"}`
		rec := app.do(http.MethodPost, "/api/milestones", token, []byte(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &ms)
		assert.Equal(t, "Fractions", ms.Title)
		require.NotNil(t, ms.TargetDate)
		assert.Equal(t, "2021-03-12", ms.TargetDate.Format("2006-01-02"))
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "milestone of unknown subject", method: http.MethodPost, path: "/api/milestones", token: token,
			body:     []byte(`{"subject_id":999,"title":"X"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"subject_id":"subject not found"}`),
		},
		{
			name: "milestone with bad date", method: http.MethodPost, path: "/api/milestones", token: token,
			body:     []byte(`{"subject_id":1,"title":"X","target_date":"12/03/2021"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"target_date":"target_date must be a date formatted as YYYY-MM-DD"}`),
		},
		{
			name: "activity of unknown milestone", method: http.MethodPost, path: "/api/activities", token: token,
			body:     []byte(`{"milestone_id":999,"title":"X"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"milestone_id":"milestone not found"}`),
		},
		{
			name: "bad pending filter", path: "/api/activities?pending=maybe", token: token,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"pending":"pending must be a boolean"}`),
		},
	})

	var halves, thirds curriculum.Activity
	t.Run("create activities", func(t *testing.T) {
		body := `{"milestone_id":` + strconv.Itoa(ms.ID) + `,"title":"Halves","notes":"paper plates","duration_mins":45}`
		rec := app.do(http.MethodPost, "/api/activities", token, []byte(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &halves)
		assert.Equal(t, maths.ID, halves.SubjectID)
		assert.True(t, halves.Pending())

		body = `{"milestone_id":` + strconv.Itoa(ms.ID) + `,"title":"Thirds","order_index":1}`
		rec = app.do(http.MethodPost, "/api/activities", token, []byte(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &thirds)
	})

	t.Run("complete & filter", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/activities/"+strconv.Itoa(halves.ID)+"/complete", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var done curriculum.Activity
		decode(t, rec, &done)
		assert.False(t, done.Pending())

		var pending []curriculum.Activity
		rec = app.do(http.MethodGet, "/api/activities?pending=true&subject_id="+strconv.Itoa(maths.ID), token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &pending)
		require.Len(t, pending, 1)
		assert.Equal(t, thirds.ID, pending[0].ID)

		var progress []curriculum.MilestoneProgress
		rec = app.do(http.MethodGet, "/api/milestones/progress", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &progress)
		require.Len(t, progress, 1)
		assert.Equal(t, 2, progress[0].Total)
		assert.Equal(t, 1, progress[0].Completed)

		rec = app.do(http.MethodPost, "/api/activities/"+strconv.Itoa(halves.ID)+"/reopen", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &done)
		assert.True(t, done.Pending())
	})

	t.Run("update activity", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/api/activities/"+strconv.Itoa(thirds.ID), token, []byte(`{"notes":"","duration_mins":30}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var act curriculum.Activity
		decode(t, rec, &act)
		assert.Equal(t, "Thirds", act.Title)
		assert.Equal(t, 30, act.DurationMins)
	})

	t.Run("update milestone", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/api/milestones/"+strconv.Itoa(ms.ID), token, []byte(`{"clear_target_date":true}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated curriculum.Milestone
		decode(t, rec, &updated)
		assert.Nil(t, updated.TargetDate)
		assert.Equal(t, "Fractions", updated.Title)
	})

	t.Run("delete milestone cascades", func(t *testing.T) {
		rec := app.do(http.MethodDelete, "/api/milestones/"+strconv.Itoa(ms.ID), token)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		rec = app.do(http.MethodGet, "/api/activities/"+strconv.Itoa(thirds.ID), token)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = app.do(http.MethodGet, "/api/milestones?subject_id="+strconv.Itoa(maths.ID), token)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)
	})
}
