package system

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

type InitCmd struct {
	Force bool `help:"Delete an existing SQLite or JSON storage file first."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized habitual storage at: %s\n", ctx.Store.GetConfigPath())
	fmt.Println("Next: habitual user add <name>")
	return nil
}

// reset removes the storage file. Database servers are left alone.
func (c *InitCmd) reset(ctx *cli.Context) error {
	switch ctx.Store.(type) {
	case *sqlite.Store, *memory.Store:
	default:
		return fmt.Errorf("--force only applies to file storage, not %s", ctx.Store.GetConfigPath())
	}

	path := ctx.Store.GetConfigPath()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to access existing storage: %w", err)
	}

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close existing storage: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete existing storage: %w", err)
	}
	fmt.Printf("Deleted existing storage at: %s\n", path)
	return nil
}
