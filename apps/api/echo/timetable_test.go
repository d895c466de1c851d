package echoapi_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mwalimu/core/curriculum"
	"github.com/trezcool/mwalimu/core/timetable"
)

func Test_timetableApi_slots(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, app.createUser(t, "Amina", "amina"))
	maths, err := app.curriculumSvc.CreateSubject(context.Background(), curriculum.NewSubject{Name: "Maths"})
	require.NoError(t, err)

	var slot timetable.Slot
	t.Run("create", func(t *testing.T) {
		body := `{"day":0,"start_min":540,"end_min":600,"subject_id":` + strconv.Itoa(maths.ID) + `}`
		rec := app.do(http.MethodPost, "/api/slots", token, []byte(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &slot)
		assert.Equal(t, 0, slot.Day)
		require.NotNil(t, slot.SubjectID)
		assert.Equal(t, maths.ID, *slot.SubjectID)
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "end before start", method: http.MethodPost, path: "/api/slots", token: token,
			body:     []byte(`{"day":1,"start_min":600,"end_min":540}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "bad weekday", method: http.MethodPost, path: "/api/slots", token: token,
			body:     []byte(`{"day":7,"start_min":540,"end_min":600}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"day":"day must be a weekday between 0 (Monday) and 6 (Sunday)"}`),
		},
		{
			name: "overlap", method: http.MethodPost, path: "/api/slots", token: token,
			body:     []byte(`{"day":0,"start_min":570,"end_min":630}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"start_min":"overlaps another slot of the same day"}`),
		},
		{
			name: "unknown subject", method: http.MethodPost, path: "/api/slots", token: token,
			body:     []byte(`{"day":2,"start_min":540,"end_min":600,"subject_id":999}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"subject_id":"subject not found"}`),
		},
		{name: "list", path: "/api/slots", token: token, wantCode: http.StatusOK, wantData: marchallList(t, slot)},
		{name: "detail", path: "/api/slots/" + strconv.Itoa(slot.ID), token: token, wantCode: http.StatusOK, wantData: marchallObj(t, slot)},
	})

	t.Run("move & delete", func(t *testing.T) {
		path := "/api/slots/" + strconv.Itoa(slot.ID)
		rec := app.do(http.MethodPut, path, token, []byte(`{"day":3,"start_min":540,"end_min":600}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var moved timetable.Slot
		decode(t, rec, &moved)
		assert.Equal(t, 3, moved.Day)
		assert.Nil(t, moved.SubjectID)

		rec = app.do(http.MethodDelete, path, token)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		rec = app.do(http.MethodDelete, path, token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_timetableApi_calendar(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, app.createUser(t, "Amina", "amina"))

	var ev timetable.Event
	t.Run("create event", func(t *testing.T) {
		body := `{"title":"Assembly","event_type":"assembly","start":"2021-03-11T09:00:00Z","end":"2021-03-11T10:00:00Z"}`
		rec := app.do(http.MethodPost, "/api/calendar/events", token, []byte(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &ev)
		assert.Equal(t, timetable.EventAssembly, ev.EventType)
	})

	var holiday timetable.Holiday
	t.Run("create holiday", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/calendar/holidays", token, []byte(`{"date":"2021-03-10","name":"Mid-term"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &holiday)
		assert.Equal(t, "2021-03-10", holiday.Date.Format("2006-01-02"))
	})

	var block timetable.UnavailableBlock
	t.Run("create unavailable block", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/calendar/unavailable", token, []byte(`{"date":"2021-03-09","start_min":540,"end_min":600,"reason":"Dentist"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &block)
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "bad event type", method: http.MethodPost, path: "/api/calendar/events", token: token,
			body:     []byte(`{"title":"X","event_type":"party","start":"2021-03-11T09:00:00Z","end":"2021-03-11T10:00:00Z"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "holiday taken", method: http.MethodPost, path: "/api/calendar/holidays", token: token,
			body:     []byte(`{"date":"2021-03-10","name":"Again"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"date":"a holiday already exists on this date"}`),
		},
		{
			name: "bad range", path: "/api/calendar/events?from=yesterday", token: token,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"from":"from must be a date or an RFC 3339 timestamp"}`),
		},
		{name: "events in week", path: "/api/calendar/events?from=2021-03-08&to=2021-03-15", token: token, wantCode: http.StatusOK, wantData: marchallList(t, ev)},
		{name: "events out of week", path: "/api/calendar/events?from=2021-03-15&to=2021-03-22", token: token, wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "holidays", path: "/api/calendar/holidays?from=2021-03-08&to=2021-03-15", token: token, wantCode: http.StatusOK, wantData: marchallList(t, holiday)},
		{name: "unavailable", path: "/api/calendar/unavailable?from=2021-03-08", token: token, wantCode: http.StatusOK, wantData: marchallList(t, block)},
		{
			name: "delete event", method: http.MethodDelete, path: "/api/calendar/events/" + strconv.Itoa(ev.ID), token: token,
			wantCode: http.StatusNoContent,
		},
		{
			name: "delete holiday", method: http.MethodDelete, path: "/api/calendar/holidays/" + strconv.Itoa(holiday.ID), token: token,
			wantCode: http.StatusNoContent,
		},
		{
			name: "delete unavailable block", method: http.MethodDelete, path: "/api/calendar/unavailable/" + strconv.Itoa(block.ID), token: token,
			wantCode: http.StatusNoContent,
		},
		{name: "events after delete", path: "/api/calendar/events", token: token, wantCode: http.StatusOK, wantData: marchallList(t)},
	})
}
