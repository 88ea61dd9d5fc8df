package system

import (
	"fmt"

	"github.com/julianstephens/callcoach/internal/cli"
)

type MigrateCmd struct {
	Status bool `help:"Only report the schema status."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	m, ok := ctx.Store.(cli.Migrator)
	if !ok {
		fmt.Println("This storage backend has no migrations.")
		return nil
	}
	runner, err := m.Migrations()
	if err != nil {
		return err
	}
	st, err := runner.Status()
	if err != nil {
		return err
	}
	fmt.Printf("Schema version: %d (latest %d)\n", st.Current, st.Latest)
	if st.UpToDate() {
		fmt.Println("✓ Schema is up to date")
		return nil
	}
	for _, mg := range st.Pending {
		fmt.Printf("  pending: %03d_%s\n", mg.Version, mg.Name)
	}
	if c.Status {
		return nil
	}

	applied, err := runner.Apply()
	if err != nil {
		return fmt.Errorf("migration failed after %d applied: %w", applied, err)
	}
	fmt.Printf("✓ Applied %d migration(s)\n", applied)
	return nil
}
