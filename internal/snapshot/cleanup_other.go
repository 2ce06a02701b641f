//go:build !windows

package snapshot

import (
	"errors"
	"os"
)

// removeBackup deletes the backup directory left behind by a swap.
func removeBackup(backupDir string) error {
	if backupDir == "" {
		return nil
	}
	err := os.RemoveAll(backupDir)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
