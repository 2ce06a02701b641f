package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
)

// Save writes s next to dir and swaps it into place, so readers never see a
// half-written snapshot.
func Save(dir string, s *Snapshot) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("cannot create snapshot parent %s: %w", parent, err)
	}
	tmp, err := os.MkdirTemp(parent, filepath.Base(dir)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cannot create staging dir: %w", err)
	}
	if err := Write(tmp, s); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}
	if err := AtomicSwap(tmp, dir); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("cannot swap snapshot into %s: %w", dir, err)
	}
	return nil
}

// AtomicSwap replaces destDir with srcDir by renaming.
func AtomicSwap(srcDir, destDir string) error {
	parent := filepath.Dir(destDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	backup := destDir + ".bak"
	_ = removeBackup(backup)
	if _, err := os.Stat(destDir); err == nil {
		if err := os.Rename(destDir, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(srcDir, destDir); err != nil {
		// rollback best-effort
		if _, stErr := os.Stat(backup); stErr == nil {
			_ = os.Rename(backup, destDir)
		}
		return err
	}
	return removeBackup(backup)
}
