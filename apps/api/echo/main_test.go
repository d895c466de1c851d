package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/mwalimu/apps/api/echo"
	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/curriculum"
	"github.com/trezcool/mwalimu/core/planner"
	"github.com/trezcool/mwalimu/core/priority"
	"github.com/trezcool/mwalimu/core/timetable"
	"github.com/trezcool/mwalimu/core/user"
	emailsvc "github.com/trezcool/mwalimu/services/email"
	inmemdb "github.com/trezcool/mwalimu/storage/database/inmem"
)

const pwd = "Tr0ub4dor&3x"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type testApp struct {
	*echoapi.Server
	conf          *core.Config
	mailSvc       *emailsvc.ConsoleServiceMock
	userSvc       *user.Service
	curriculumSvc *curriculum.Service
	timetableSvc  *timetable.Service
	plannerSvc    *planner.Service
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := &core.Config{
		AppName:                   "Mwalimu",
		TestMode:                  true,
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:8080",
		DefaultFromEmail:          mail.Address{Name: "Mwalimu", Address: "noreply@localhost"},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			DisableReqLogs:            true,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: time.Hour,
		},
		Planner: core.PlannerConfig{DefaultPacing: "strict"},
	}
	logger := nopLogger{}
	core.ParseEmailTemplates(conf, logger)

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	db := inmemdb.Open()
	app := &testApp{conf: conf, mailSvc: emailsvc.NewConsoleServiceMock(conf, logger)}
	app.userSvc = user.NewService(conf, inmemdb.NewUserRepository(db), app.mailSvc)
	app.curriculumSvc = curriculum.NewService(inmemdb.NewCurriculumRepository(db), logger)
	app.timetableSvc = timetable.NewService(inmemdb.NewTimetableRepository(db), app.curriculumSvc, logger)
	app.plannerSvc = planner.NewService(
		conf, inmemdb.NewPlanRepository(db), app.curriculumSvc, app.timetableSvc,
		priority.NewDeadlineRanker(), app.mailSvc, logger,
	)

	app.Server = echoapi.NewServer(echoapi.Deps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       app.userSvc,
		CurriculumSvc: app.curriculumSvc,
		TimetableSvc:  app.timetableSvc,
		PlannerSvc:    app.plannerSvc,
	})
	return app
}

func (app *testApp) createUser(t *testing.T, name, uname string, roles ...string) user.User {
	t.Helper()
	usr, err := app.userSvc.Create(context.Background(), user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           uname + "@school.test",
		Password:        pwd,
		PasswordConfirm: pwd,
		Roles:           roles,
	})
	require.NoError(t, err)
	return usr
}

func (app *testApp) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(app.conf, echoapi.GetUserClaims(app.conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// do serves the request and returns the recorded response.
func (app *testApp) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			checkCodeAndData(t, tt, app.do(method, tt.path, tt.token, tt.body))
		})
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), "body: %s", rec.Body.String())
}
