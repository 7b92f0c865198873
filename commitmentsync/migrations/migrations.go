package migrations

import (
	_ "embed"

	"github.com/mystikonetwork/commitment-tree/db"
	"github.com/mystikonetwork/commitment-tree/db/types"
)

//go:embed commitmentsync0001.sql
var mig001 string

// Migrations of the commitmentsync DB
var Migrations = []types.Migration{
	{
		ID:  "commitmentsync0001",
		SQL: mig001,
	},
}

// RunMigrations applies Migrations to the DB at dbPath
func RunMigrations(dbPath string) error {
	return db.RunMigrations(dbPath, Migrations)
}
