//go:build windows

package snapshot

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/windows"
)

// removeBackup deletes the backup directory left behind by a swap.
//
// Indexers and antivirus scanners can hold handles on freshly written files, so
// removal is retried for a short period. Whatever is still left is scheduled for
// deletion at next reboot, deepest entries first.
func removeBackup(backupDir string) error {
	if backupDir == "" {
		return nil
	}

	var lastErr error
	for i := 0; i < 15; i++ {
		err := os.RemoveAll(backupDir)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}

	var leftovers []string
	_ = filepath.WalkDir(backupDir, func(p string, _ fs.DirEntry, err error) error {
		if err == nil {
			leftovers = append(leftovers, p)
		}
		return nil
	})
	for i := len(leftovers) - 1; i >= 0; i-- {
		p, err := windows.UTF16PtrFromString(leftovers[i])
		if err != nil {
			return lastErr
		}
		if err := windows.MoveFileEx(p, nil, windows.MOVEFILE_DELAY_UNTIL_REBOOT); err != nil {
			return lastErr
		}
	}
	return nil
}
