package main

import (
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/fs"
	"github.com/trezcool/mahudhurio/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errors.Errorf("migrations need the %s backend (got %s)", core.BackendPostgres, cli.conf.Database.Backend)
	}
	if err := database.PrepareMigrations(cli.db); err != nil {
		return err
	}
	return gooseRunFunc(args[0], cli.db.DB, appfs.MigrationsDir, args[1:]...)
}
