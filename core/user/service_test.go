package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/user"
	"github.com/KushalGupta-07/Smart-Admission-System/services/email"
	"github.com/KushalGupta-07/Smart-Admission-System/services/logger"
	"github.com/KushalGupta-07/Smart-Admission-System/services/session"
	"github.com/KushalGupta-07/Smart-Admission-System/storage/database/inmem"
	"github.com/KushalGupta-07/Smart-Admission-System/tests"
)

const testPassword = "Str0ng#Passw0rd"

func setup(t *testing.T) (user.Service, user.Repository) {
	conf := core.NewTestConfig()
	require.NoError(t, core.ParseEmailTemplates(conf))
	validate, _ := testutil.NewValidator(t)
	emailsvc.ResetSentMessages()

	repo := inmemdb.NewUserRepository(inmemdb.Open())
	svc := user.NewService(repo, session.NewMemoryStore(), emailsvc.NewConsoleServiceMock(conf), logsvc.NewTestLogger(), validate, conf)
	return svc, repo
}

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, user.NewUser{
		Name:            " Admin ",
		Email:           "Admin@Test.in",
		Password:        testPassword,
		PasswordConfirm: testPassword,
		Roles:           []string{user.RoleAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, "Admin", admin.Name)
	assert.Equal(t, "admin@test.in", admin.Email)
	assert.True(t, admin.IsActive)
	assert.True(t, admin.IsAdmin())
	assert.False(t, admin.CreatedAt.IsZero())

	student, err := svc.Create(ctx, user.NewUser{Name: "Asha", Email: "asha@test.in", Password: testPassword, PasswordConfirm: testPassword})
	require.NoError(t, err)
	assert.Equal(t, []string{user.RoleStudent}, student.Roles)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Create(ctx, user.NewUser{Name: "Asha", Email: " ASHA@test.in", Password: testPassword, PasswordConfirm: testPassword})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "%v", err)
		assert.Equal(t, map[string]string{"email": user.ErrEmailExists.Error()}, vErr.FieldMap())
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := svc.Create(ctx, user.NewUser{
			Name: "Ravi", Email: "ravi@test.in", Password: testPassword, PasswordConfirm: testPassword, Roles: []string{"dean"},
		})
		assert.Error(t, err)
	})

	t.Run("roles", func(t *testing.T) {
		ok, err := svc.HasRole(ctx, admin.ID, user.RoleAdmin)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.HasRole(ctx, student.ID, user.RoleAdmin)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = svc.HasRole(ctx, "unknown", user.RoleAdmin)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestService_SignIn(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "Asha", "asha@test.in", testPassword, []string{user.RoleStudent}, true)
	testutil.CreateUser(t, repo, "Gone", "gone@test.in", testPassword, []string{user.RoleStudent}, false)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{"unknown email", "nobody@test.in", testPassword, user.ErrInvalidCredentials},
		{"wrong password", "asha@test.in", "lol", user.ErrInvalidCredentials},
		{"deactivated", "gone@test.in", testPassword, user.ErrAccountDeactivated},
		{"deactivated, wrong password", "gone@test.in", "lol", user.ErrInvalidCredentials},
		{"signs in", " ASHA@test.in ", testPassword, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.SignIn(ctx, tc.email, tc.pwd)
			if tc.wantErr != nil {
				assert.Equal(t, tc.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, usr.ID, got.ID)
			assert.False(t, got.LastLogin.IsZero())
		})
	}
}

func TestService_SignOut(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.SignOut(ctx, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, svc.SignOut(ctx, "", time.Now().Add(time.Hour)))

	for id, want := range map[string]bool{"jti-1": true, "jti-2": false, "": false} {
		got, err := svc.IsSignedOut(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}
}

func TestService_RequestPasswordReset(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	testutil.CreateUser(t, repo, "Gone", "gone@test.in", testPassword, []string{user.RoleStudent}, false)
	testutil.CreateUser(t, repo, "Asha", "asha@test.in", testPassword, []string{user.RoleStudent}, true)

	assert.Equal(t, user.ErrNotFound, errors.Cause(svc.RequestPasswordReset(ctx, "nobody@test.in")))
	assert.Equal(t, user.ErrNotFound, errors.Cause(svc.RequestPasswordReset(ctx, "gone@test.in")))
	_, sent := emailsvc.LastSentMessage()
	assert.False(t, sent)

	require.NoError(t, svc.RequestPasswordReset(ctx, "Asha@test.in"))
	msg, sent := emailsvc.LastSentMessage()
	require.True(t, sent)
	assert.Equal(t, "Password Reset", msg.Subject)
	assert.Contains(t, msg.TextContent, "/password-reset/confirm?uid=")

	t.Run("invalid token", func(t *testing.T) {
		err := svc.ResetPassword(ctx, user.ResetUserPassword{UID: "lol", Token: "lol", Password: "N3w#Passw0rd", PasswordConfirm: "N3w#Passw0rd"})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "%v", err)
		assert.Equal(t, map[string]string{"token": "invalid or expired token"}, vErr.FieldMap())
	})

	t.Run("passwords must match", func(t *testing.T) {
		err := svc.ResetPassword(ctx, user.ResetUserPassword{UID: "lol", Token: "lol", Password: "N3w#Passw0rd", PasswordConfirm: "other"})
		assert.Error(t, err)
	})
}
