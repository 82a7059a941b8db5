package main

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/fs"
	"github.com/trezcool/videograder/storage/database"
)

// mockable
var gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
	return goose.RunFS(command, db, appfs.FS, "migrations", args...)
}

func (cli *commandLine) migrate(args []string) error {
	if cli.conf.Database.Engine != core.DBEnginePostgres {
		return errors.Errorf("migrations need the %s engine (configured: %s)", core.DBEnginePostgres, cli.conf.Database.Engine)
	}
	if err := cli.promptDBPassword(); err != nil {
		return err
	}

	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, cli.conf.Database); err != nil {
		return err
	}
	db, err := database.Open(ctx, cli.conf.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], db.DB, arguments...)
}
