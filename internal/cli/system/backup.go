package system

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Snapshot the storage file."`
	List    BackupListCmd    `cmd:"" help:"List snapshots, newest first." default:"1"`
	Restore BackupRestoreCmd `cmd:"" help:"Replace the storage file with a snapshot."`
}

func backupManager(ctx *cli.Context) (*backup.Manager, error) {
	path := ctx.Store.GetConfigPath()
	switch ctx.Store.(type) {
	case *sqlite.Store:
		return backup.NewManager(path, ctx.Clock)
	case *memory.Store:
		if strings.EqualFold(filepath.Ext(path), ".json") {
			return backup.NewManager(path, ctx.Clock)
		}
	}
	return nil, backup.ErrUnsupported
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.Create()
	if err != nil {
		return err
	}
	fmt.Printf("Created backup: %s\n", path)
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Printf("No backups in %s\n", mgr.Dir())
		return nil
	}
	for _, b := range backups {
		fmt.Printf("%s  %8d bytes  %s\n", b.Timestamp.Format("2006-01-02 15:04:05"), b.Size, filepath.Base(b.Path))
	}
	return nil
}

type BackupRestoreCmd struct {
	Backup string `arg:"" help:"Snapshot file name or path."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	path := c.Backup
	if !strings.ContainsRune(path, filepath.Separator) {
		path = filepath.Join(mgr.Dir(), path)
	}

	// The file is replaced underneath the store.
	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	previous, err := mgr.Restore(path)
	if err != nil {
		return err
	}
	if previous != "" {
		fmt.Printf("Saved current storage as: %s\n", filepath.Base(previous))
	}
	fmt.Printf("Restored %s\n", filepath.Base(path))
	return nil
}
