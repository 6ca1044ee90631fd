// Package updater replaces the running poselink binary with a newer release
// and keeps one generation of backup for rollback.
package updater

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/poselink/poselink/internal/version"
)

const (
	backupBinaryName = "poselink.backup"
	backupMetaName   = "backup.json"
)

// backupMeta is persisted next to the backed-up binary so the version and
// install path survive restarts.
type backupMeta struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	ExecPath  string    `json:"exec_path"`
}

// binaryBackup stores a single copy of the current executable under
// ~/.cache/poselink/backup/. Saving again overwrites the previous copy.
type binaryBackup struct {
	dir string
	log *slog.Logger

	mu   sync.RWMutex
	meta *backupMeta
}

func newBinaryBackup(log *slog.Logger) (*binaryBackup, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("home directory: %w", err)
	}
	dir := filepath.Join(home, ".cache", "poselink", "backup")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	b := &binaryBackup{dir: dir, log: log}
	b.recover()
	return b, nil
}

// recover picks up a backup left by a previous run, if both the metadata and
// the binary are still on disk.
func (b *binaryBackup) recover() {
	data, err := os.ReadFile(filepath.Join(b.dir, backupMetaName))
	if err != nil {
		return
	}

	var meta backupMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		b.log.Warn("Discarding unreadable backup metadata", "error", err)
		return
	}
	if _, err := os.Stat(filepath.Join(b.dir, backupBinaryName)); err != nil {
		b.log.Warn("Backup metadata present but binary missing", "error", err)
		return
	}

	b.mu.Lock()
	b.meta = &meta
	b.mu.Unlock()
	b.log.Info("Found existing backup", "version", meta.Version)
}

// save copies the running executable into the backup directory and records
// its version and path.
func (b *binaryBackup) save() error {
	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	if err := copyFile(exe, filepath.Join(b.dir, backupBinaryName)); err != nil {
		return fmt.Errorf("copy binary: %w", err)
	}

	meta := backupMeta{
		Version:   version.Version,
		CreatedAt: time.Now(),
		ExecPath:  exe,
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode backup metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(b.dir, backupMetaName), data, 0o644); err != nil {
		return fmt.Errorf("write backup metadata: %w", err)
	}

	b.mu.Lock()
	b.meta = &meta
	b.mu.Unlock()
	b.log.Info("Backed up current binary", "version", meta.Version)
	return nil
}

// restore puts the backed-up binary back at the path it was saved from.
func (b *binaryBackup) restore() error {
	b.mu.RLock()
	meta := b.meta
	b.mu.RUnlock()

	if meta == nil {
		return fmt.Errorf("no backup available")
	}
	if err := copyFile(filepath.Join(b.dir, backupBinaryName), meta.ExecPath); err != nil {
		return fmt.Errorf("restore binary: %w", err)
	}
	b.log.Info("Restored backup", "version", meta.Version)
	return nil
}

func (b *binaryBackup) exists() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.meta != nil
}

func (b *binaryBackup) version() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.meta == nil {
		return ""
	}
	return b.meta.Version
}

// copyFile replaces dst with an executable copy of src.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
