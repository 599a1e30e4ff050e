package main

import (
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/evalia/backend/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if err := database.SetupMigrations(); err != nil {
		return err
	}

	var sqlDB *sql.DB
	if cli.db != nil {
		sqlDB = cli.db.DB.DB
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], sqlDB, "migrations", arguments...)
}
