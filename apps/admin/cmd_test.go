package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
	"github.com/KushalGupta-07/Smart-Admission-System/core/user"
	inmemdb "github.com/KushalGupta-07/Smart-Admission-System/storage/database/inmem"
	"github.com/KushalGupta-07/Smart-Admission-System/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	// set up DB & repos
	db := inmemdb.Open()
	out := new(bytes.Buffer)
	color.NoColor = true

	// start CLI
	return &commandLine{
		usrRepo: inmemdb.NewUserRepository(db),
		appRepo: inmemdb.NewApplicationRepository(db),
		out:     out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type extra struct {
	pwd string
}

func mockPassword(tt cliTest) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if extra, ok := tt.extra.(extra); ok {
			return []byte(extra.pwd), nil
		}
		return nil, nil
	}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if errors.Cause(err) != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	var ran []string
	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, strings.Join(append([]string{command}, args...), " "))
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "course_fees", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
	assert.Equal(t, []string{"up", "up-to 2", "down-to 1", "status", "create course_fees sql"}, ran)
}

func Test_commandLine_addUser(t *testing.T) {
	cli, _ := setup(t)
	ctx := context.Background()
	existing := testutil.CreateUser(t, cli.usrRepo, "Old Name", "ravi@test.in", "Old#Passw0rd", []string{user.RoleStudent}, false)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "email but no name", args: []string{"adduser", "-email", "neha@test.in"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Neha", "-email", "neha@test.in"}, wantErr: errHelp},
		{name: "creates admin", args: []string{"adduser", "-name", " Neha Singh ", "-email", "Neha@Test.in", "-admin"}, extra: extra{pwd: "Adm1n#Passw0rd"}},
		{name: "updates existing", args: []string{"adduser", "-name", "Ravi Kumar", "-email", "ravi@test.in"}, extra: extra{pwd: "N3w#Passw0rd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	neha, err := cli.usrRepo.GetUserByEmail(ctx, "neha@test.in")
	require.NoError(t, err)
	assert.Equal(t, "Neha Singh", neha.Name)
	assert.True(t, neha.IsActive)
	assert.True(t, neha.IsAdmin())
	assert.NoError(t, neha.CheckPassword("Adm1n#Passw0rd"))

	ravi, err := cli.usrRepo.GetUserByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", ravi.Name)
	assert.True(t, ravi.IsActive)
	assert.False(t, ravi.IsAdmin())
	assert.NoError(t, ravi.CheckPassword("N3w#Passw0rd"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)
	usr := testutil.CreateUser(t, cli.usrRepo, "Asha Rao", "asha@test.in", "Old#Passw0rd", []string{user.RoleStudent}, true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "asha@test.in"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.in"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", " ASHA@test.in "}, extra: extra{pwd: "N3w#Passw0rd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	refreshed, err := cli.usrRepo.GetUserByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash))
	assert.NoError(t, refreshed.CheckPassword("N3w#Passw0rd"))
}

func Test_commandLine_listApplications(t *testing.T) {
	cli, out := setup(t)
	asha := testutil.CreateUser(t, cli.usrRepo, "Asha Rao", "asha@test.in", "", []string{user.RoleStudent}, true)
	ravi := testutil.CreateUser(t, cli.usrRepo, "Ravi Kumar", "ravi@test.in", "", []string{user.RoleStudent}, true)
	bba := testutil.CreateApplication(t, cli.appRepo, asha.ID, "BBA", application.StatusApproved)
	bcom := testutil.CreateApplication(t, cli.appRepo, ravi.ID, "B.Com", application.StatusSubmitted)

	require.NoError(t, cli.run([]string{"admin", "applications"}))
	assert.Contains(t, out.String(), bba.ApplicationNumber)
	assert.Contains(t, out.String(), bcom.ApplicationNumber)
	assert.Contains(t, out.String(), "2 of 2 applications (submitted 1, under review 0, approved 1, rejected 0)")

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "applications", "-status", "approved", "-search", "asha"}))
	assert.Contains(t, out.String(), bba.ApplicationNumber)
	assert.NotContains(t, out.String(), bcom.ApplicationNumber)
	assert.Contains(t, out.String(), "1 of 2 applications")
}
