package main

import (
	"context"
	"time"

	"github.com/mlezi/darasa/core"
	"github.com/mlezi/darasa/core/user"
)

// addUser updates or creates an active admin account.
func (cli *commandLine) addUser(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
	}
	usr.Name = name
	usr.Role = user.RoleAdmin
	usr.UpdatedAt = time.Now().UTC()
	usr.SetActive(true)
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateOrCreateUser(ctx, usr)
	return err
}
