package main

import "github.com/trezcool/mwalimu/storage/database"

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	return migrateFunc(cli.db, args[0], args[1:]...)
}
