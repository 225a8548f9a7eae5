package echoapi_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/KushalGupta-07/Smart-Admission-System/apps/api/echo"
	"github.com/KushalGupta-07/Smart-Admission-System/core/user"
	"github.com/KushalGupta-07/Smart-Admission-System/services/email"
	"github.com/KushalGupta-07/Smart-Admission-System/tests"
)

func Test_authApi_signUp(t *testing.T) {
	env := setup(t)

	body := func(name, email, pwd string) []byte {
		return marchallObj(t, map[string]string{"name": name, "email": email, "password": pwd})
	}

	tests := []httpTest{
		{
			name: "required fields", method: http.MethodPost, path: "/v1/auth/signup", body: body("", "", ""),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":     "this field is required",
				"email":    "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name: "email taken", method: http.MethodPost, path: "/v1/auth/signup",
			body:     body("Asha", "ASHA@test.in", testPassword),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/v1/auth/signup",
			body: body("Neha", "neha@test.in", "12345678"), wantCode: http.StatusBadRequest,
		},
	}
	runHTTPTests(t, env, tests)

	t.Run("signs up a student", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/signup", body(" Neha Singh ", "Neha@Test.in", testPassword))
		env.serve(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res SignUpResponse
		unmarchallObj(t, rec, &res)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, "Neha Singh", res.User.Name)
		assert.Equal(t, "neha@test.in", res.User.Email)
		assert.Equal(t, []string{user.RoleStudent}, res.User.Roles)

		req, rec = newAuthRequest(http.MethodGet, "/v1/auth/me", res.Token)
		env.serve(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"email":"neha@test.in"`)
	})
}

func Test_authApi_login(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.usrRepo, "Gone", "gone@test.in", testPassword, []string{user.RoleStudent}, false)

	body := func(email, pwd string) []byte {
		return marchallObj(t, LoginRequest{Email: email, Password: pwd})
	}
	invalid := marchallObj(t, httpErr{Error: user.ErrInvalidCredentials.Error()})

	tests := []httpTest{
		{
			name: "required fields", method: http.MethodPost, path: "/v1/auth/login", body: body("", ""),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"email":    "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/auth/login",
			body: body("nobody@test.in", testPassword), wantCode: http.StatusBadRequest, wantData: invalid,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/auth/login",
			body: body("asha@test.in", "Wr0ng#Password"), wantCode: http.StatusBadRequest, wantData: invalid,
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/auth/login",
			body: body("gone@test.in", testPassword), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: user.ErrAccountDeactivated.Error()}),
		},
	}
	runHTTPTests(t, env, tests)

	t.Run("signs in", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/login", body(" ASHA@test.in ", testPassword))
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res LoginResponse
		unmarchallObj(t, rec, &res)
		assert.NotEmpty(t, res.Token)

		usr, err := env.usrRepo.GetUserByID(req.Context(), env.student.ID)
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero())
	})
}

func Test_authApi_logout(t *testing.T) {
	env := setup(t)
	token := env.token(t, env.student)
	otherToken := env.token(t, env.student)

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/auth/logout", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "signs out", method: http.MethodPost, path: "/v1/auth/logout", token: token, wantCode: http.StatusNoContent},
		{
			name: "signed out token", path: "/v1/auth/me", token: token, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: user.ErrSessionRevoked.Error()}),
		},
		{name: "other sessions live on", path: "/v1/auth/me", token: otherToken, wantCode: http.StatusOK},
	}
	runHTTPTests(t, env, tests)
}

func Test_authApi_refreshToken(t *testing.T) {
	env := setup(t)

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/auth/token-refresh", wantCode: http.StatusUnauthorized},
		{name: "invalid token", method: http.MethodPost, path: "/v1/auth/token-refresh", token: "lol", wantCode: http.StatusUnauthorized},
	}
	runHTTPTests(t, env, tests)

	req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", env.token(t, env.student))
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var res LoginResponse
	unmarchallObj(t, rec, &res)

	req, rec = newAuthRequest(http.MethodGet, "/v1/auth/me", res.Token)
	env.serve(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)

	// deactivated accounts cannot refresh
	usr := env.student
	usr.IsActive = false
	_, err := env.usrRepo.UpdateUser(req.Context(), usr)
	require.NoError(t, err)
	req, rec = newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", res.Token)
	env.serve(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_authApi_passwordReset(t *testing.T) {
	env := setup(t)
	success := marchallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	tests := []httpTest{
		{
			name: "email required", method: http.MethodPost, path: "/v1/auth/password-reset",
			body: marchallObj(t, PasswordResetRequest{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/auth/password-reset",
			body: marchallObj(t, PasswordResetRequest{Email: "nobody@test.in"}), wantCode: http.StatusOK, wantData: success,
		},
	}
	runHTTPTests(t, env, tests)
	_, sent := emailsvc.LastSentMessage()
	assert.False(t, sent)

	req, rec := newRequest(http.MethodPost, "/v1/auth/password-reset", marchallObj(t, PasswordResetRequest{Email: "asha@test.in"}))
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	msg, sent := emailsvc.LastSentMessage()
	require.True(t, sent)
	assert.Equal(t, "asha@test.in", msg.To[0].Address)

	// the reset link carries the uid & token
	link := msg.TextContent[strings.Index(msg.TextContent, "uid="):]
	link = strings.Fields(link)[0]
	uid := strings.TrimPrefix(strings.Split(link, "&")[0], "uid=")
	token := strings.TrimPrefix(strings.Split(link, "&")[1], "token=")

	newPwd := "N3w#Passw0rd!"
	confirm := func(token string) []byte {
		return marchallObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: newPwd, PasswordConfirm: newPwd})
	}

	req, rec = newRequest(http.MethodPost, "/v1/auth/password-reset-confirm", confirm("bad-token"))
	env.serve(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"token":"invalid or expired token"}`, rec.Body.String())

	req, rec = newRequest(http.MethodPost, "/v1/auth/password-reset-confirm", confirm(token))
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req, rec = newRequest(http.MethodPost, "/v1/auth/login", marchallObj(t, LoginRequest{Email: "asha@test.in", Password: newPwd}))
	env.serve(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
}
