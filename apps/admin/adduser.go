package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	now := core.NowFunc().UTC()

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	isNew := errors.Cause(err) == user.ErrNotFound
	switch {
	case isNew:
		usr = user.User{Email: email, Roles: []string{user.RoleStudent}, CreatedAt: now}
	case err != nil:
		return err
	}
	usr.Name = name
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if isNew {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
