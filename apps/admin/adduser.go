package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/user"
)

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	lookup := uname
	if lookup == "" {
		lookup = email
	}
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, lookup)
	exists := err == nil
	if err != nil && !core.IsNotFound(err) {
		return err
	}
	if !exists && email != "" && uname != "" {
		if usr, err = cli.usrRepo.GetUserByUsernameOrEmail(ctx, email); err == nil {
			exists = true
		} else if !core.IsNotFound(err) {
			return err
		}
	}

	now := time.Now().UTC()
	if !exists {
		usr = user.User{Roles: []string{user.RoleTeacher}, CreatedAt: now}
	}
	if name = core.CleanString(name, false); name != "" {
		usr.Name = name
	}
	if uname != "" {
		usr.Username = uname
	}
	if email != "" {
		usr.Email = email
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	active := true
	usr.IsActive = &active
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %q saved\n", lookup)
	return nil
}
