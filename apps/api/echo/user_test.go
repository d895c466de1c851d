package echoapi_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/mwalimu/apps/api/echo"
	"github.com/trezcool/mwalimu/core/user"
)

func Test_home(t *testing.T) {
	app := setup(t)
	rec := app.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Mwalimu API!", rec.Body.String())
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	usr := app.createUser(t, "Amina", "amina")
	inactive := false
	_, err := app.userSvc.Update(context.Background(), app.createUser(t, "Baraka", "baraka").ID, user.UpdateUser{
		Name: "Baraka", Username: "baraka", Email: "baraka@school.test", IsActive: &inactive,
	})
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{
			name: "missing password", method: http.MethodPost, path: "/api/users/login",
			body:     []byte(`{"username":"amina"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"password":"this field is required"}`),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/api/users/login",
			body:     []byte(`{"username":"nobody","password":"` + pwd + `"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/users/login",
			body:     []byte(`{"username":"amina","password":"nope"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/api/users/login",
			body:     []byte(`{"username":"baraka","password":"` + pwd + `"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	t.Run("valid (email, any case)", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/users/login", "", []byte(`{"username":" Amina@School.test ","password":"`+pwd+`"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.LoginResponse
		decode(t, rec, &resp)
		claims := new(echoapi.Claims)
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(app.conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, usr.ID, claims.Subject)
		assert.True(t, claims.IsTeacher)
		assert.False(t, claims.IsAdmin)

		logged, err := app.userSvc.GetByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.False(t, logged.LastLogin.IsZero())
	})
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin", user.RoleAdmin)
	amina := app.createUser(t, "Amina", "amina")
	zawadi := app.createUser(t, "Zawadi", "zawadi")
	adminToken := app.getToken(t, admin)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/api/users", token: app.getToken(t, amina),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "get all", path: "/api/users", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, admin, amina, zawadi)},
		{
			name: "order by -username", path: "/api/users?ordering=-username", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, zawadi, amina, admin),
		},
		{name: "roles", path: "/api/users/roles", token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)},
	})
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	amina := app.createUser(t, "Amina", "amina")
	token := app.getToken(t, amina)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/api/users/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "me", path: "/api/users/me", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, amina)},
		{name: "own detail", path: "/api/users/" + amina.ID, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, amina)},
	})

	t.Run("deleted user", func(t *testing.T) {
		require.NoError(t, app.userSvc.Delete(context.Background(), amina.ID))
		rec := app.do(http.MethodGet, "/api/users/me", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_userApi_create(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin", user.RoleAdmin)
	teacher := app.createUser(t, "Amina", "amina")
	adminToken := app.getToken(t, admin)

	runHTTPTests(t, app, []httpTest{
		{
			name: "admin required", method: http.MethodPost, path: "/api/users/register", token: app.getToken(t, teacher),
			body:     []byte(`{}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "invalid", method: http.MethodPost, path: "/api/users/register", token: adminToken,
			body:     []byte(`{"name":"Jane","username":"jane","password":"` + pwd + `","password_confirm":"other"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "username taken", method: http.MethodPost, path: "/api/users/register", token: adminToken,
			body:     []byte(`{"name":"Jane","username":"amina","password":"` + pwd + `","password_confirm":"` + pwd + `"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"username":"a user with this username already exists"}`),
		},
	})

	t.Run("valid", func(t *testing.T) {
		body := `{"name":"Jane","username":"Jane_Doe","password":"` + pwd + `","password_confirm":"` + pwd + `"}`
		rec := app.do(http.MethodPost, "/api/users/register", adminToken, []byte(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var usr user.User
		decode(t, rec, &usr)
		assert.Equal(t, "jane_doe", usr.Username)
		assert.Equal(t, []string{user.RoleTeacher}, usr.Roles)
	})
}

func Test_userApi_update(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin", user.RoleAdmin)
	amina := app.createUser(t, "Amina", "amina")
	baraka := app.createUser(t, "Baraka", "baraka")
	aminaToken := app.getToken(t, amina)

	runHTTPTests(t, app, []httpTest{
		{
			name: "other user is hidden", method: http.MethodPut, path: "/api/users/" + baraka.ID, token: aminaToken,
			body: []byte(`{"name":"B"}`), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "roles need admin", method: http.MethodPut, path: "/api/users/" + amina.ID, token: aminaToken,
			body: []byte(`{"roles":["admin"]}`), wantCode: http.StatusForbidden,
		},
		{
			name: "cannot delete self", method: http.MethodDelete, path: "/api/users/" + admin.ID, token: app.getToken(t, admin),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	})

	t.Run("rename self", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/api/users/"+amina.ID, aminaToken, []byte(`{"name":" Amina W. "}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usr user.User
		decode(t, rec, &usr)
		assert.Equal(t, "Amina W.", usr.Name)
		assert.Equal(t, "amina", usr.Username)
	})

	t.Run("admin deletes", func(t *testing.T) {
		rec := app.do(http.MethodDelete, "/api/users/"+baraka.ID, app.getToken(t, admin))
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		_, err := app.userSvc.GetByID(context.Background(), baraka.ID)
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	app := setup(t)
	amina := app.createUser(t, "Amina", "amina")

	runHTTPTests(t, app, []httpTest{
		{
			name: "invalid email", method: http.MethodPost, path: "/api/users/password-reset",
			body: []byte(`{"email":"nope"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/api/users/password-reset",
			body: []byte(`{"email":"ghost@school.test"}`), wantCode: http.StatusOK,
		},
	})
	assert.Empty(t, app.mailSvc.Sent())

	rec := app.do(http.MethodPost, "/api/users/password-reset", "", []byte(`{"email":"AMINA@school.test"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sent := app.mailSvc.Sent()
	require.Len(t, sent, 1)

	data, ok := sent[0].TemplateData.(map[string]string)
	require.True(t, ok)
	parts := strings.Split(data["URL"], "/")
	require.True(t, len(parts) >= 2)
	uid, token := parts[len(parts)-2], parts[len(parts)-1]

	newPwd := "N3w-Secret!pass"
	body := `{"uid":"` + uid + `","token":"` + token + `","password":"` + newPwd + `","password_confirm":"` + newPwd + `"}`
	rec = app.do(http.MethodPost, "/api/users/password-reset-confirm", "", []byte(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	usr, err := app.userSvc.GetByID(context.Background(), amina.ID)
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword(newPwd))

	// the token is single use
	rec = app.do(http.MethodPost, "/api/users/password-reset-confirm", "", []byte(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)
	amina := app.createUser(t, "Amina", "amina")

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/api/users/token-refresh", wantCode: http.StatusUnauthorized},
	})

	rec := app.do(http.MethodPost, "/api/users/token-refresh", app.getToken(t, amina))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp echoapi.LoginResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
}
