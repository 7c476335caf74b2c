package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
)

type tokenOptions struct {
	id       string
	name     string
	username string
	schoolID string
	roles    string // comma separated
}

func (opts tokenOptions) user() (user.User, error) {
	usr := user.User{
		ID:       core.CleanString(opts.id),
		Name:     core.CleanString(opts.name),
		Username: core.CleanString(opts.username, true /* lower */),
		SchoolID: core.CleanString(opts.schoolID),
	}
	for _, role := range strings.Split(opts.roles, ",") {
		role = core.CleanString(role, true /* lower */)
		if role == "" {
			continue
		}
		if !user.IsValidRole(role) {
			return user.User{}, errors.Errorf("%q: invalid role", role)
		}
		usr.Roles = append(usr.Roles, role)
	}
	if len(usr.Roles) == 0 {
		return user.User{}, errors.New("at least one role is required")
	}
	return usr, nil
}

// token prints a signed API token for the user described by opts.
func (cli *commandLine) token(opts tokenOptions) error {
	usr, err := opts.user()
	if err != nil {
		return err
	}
	token, err := echoapi.GenerateToken(cli.conf, echoapi.GetUserClaims(usr, cli.conf))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, token)
	return err
}
