package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/storage"
)

type MigrateCmd struct {
	Status bool `help:"Show the schema version and pending migrations without applying them."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	migrator, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return fmt.Errorf("storage at %s has no schema to migrate", ctx.Store.GetConfigPath())
	}

	if c.Status {
		st, err := migrator.MigrationStatus(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Schema version: %d (latest %d)\n", st.Current, st.Latest)
		for _, m := range st.Pending {
			fmt.Printf("  pending %03d_%s\n", m.Version, m.Name)
		}
		return nil
	}

	count, err := migrator.Migrate(context.Background(), func(msg string) {
		fmt.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if count > 0 {
		fmt.Printf("\nApplied %d migration(s).\n", count)
	}
	return nil
}
