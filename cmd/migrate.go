package cmd

import (
	"fmt"

	"lotto/config"
	"lotto/database"
)

// MigrateCmd groups the migration subcommands
type MigrateCmd struct {
	Up     MigrateUpCmd     `cmd:"" help:"Apply all pending migrations"`
	Down   MigrateDownCmd   `cmd:"" help:"Roll back migrations"`
	Status MigrateStatusCmd `cmd:"" help:"Show the current migration version"`
}

type MigrateUpCmd struct{}

func (c *MigrateUpCmd) Run() error {
	return database.MigrateUp(config.Get().GetDatabaseURL())
}

type MigrateDownCmd struct {
	Steps int `arg:"" optional:"" default:"1" help:"Number of migrations to roll back"`
}

func (c *MigrateDownCmd) Run() error {
	if c.Steps < 1 {
		return fmt.Errorf("steps must be at least 1")
	}
	return database.MigrateDown(config.Get().GetDatabaseURL(), c.Steps)
}

type MigrateStatusCmd struct{}

func (c *MigrateStatusCmd) Run() error {
	status, err := database.MigrateStatus(config.Get().GetDatabaseURL())
	if err != nil {
		return err
	}
	if !status.Applied {
		fmt.Println("No migrations applied")
		return nil
	}
	fmt.Printf("Version: %d, dirty: %t\n", status.Version, status.Dirty)
	return nil
}
