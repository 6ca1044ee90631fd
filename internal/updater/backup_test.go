package updater

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poselink/poselink/internal/logging"
)

func seedBackup(t *testing.T, dir string, meta backupMeta, withBinary bool) {
	t.Helper()
	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, backupMetaName), data, 0o644); err != nil {
		t.Fatal(err)
	}
	if withBinary {
		if err := os.WriteFile(filepath.Join(dir, backupBinaryName), []byte("old build"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBinaryBackupRecover(t *testing.T) {
	dir := t.TempDir()
	seedBackup(t, dir, backupMeta{Version: "1.2.0", CreatedAt: time.Now()}, true)

	b := &binaryBackup{dir: dir, log: logging.GetLogger("updater")}
	b.recover()

	if !b.exists() {
		t.Fatal("Backup on disk was not recovered")
	}
	if got := b.version(); got != "1.2.0" {
		t.Errorf("version() = %q, want 1.2.0", got)
	}
}

func TestBinaryBackupRecoverIgnoresOrphanedMetadata(t *testing.T) {
	dir := t.TempDir()
	seedBackup(t, dir, backupMeta{Version: "1.2.0"}, false)

	b := &binaryBackup{dir: dir, log: logging.GetLogger("updater")}
	b.recover()

	if b.exists() {
		t.Error("Metadata without a binary should not count as a backup")
	}
}

func TestBinaryBackupRestore(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "poselink")
	if err := os.WriteFile(target, []byte("broken build"), 0o755); err != nil {
		t.Fatal(err)
	}
	seedBackup(t, dir, backupMeta{Version: "1.1.0", ExecPath: target}, true)

	b := &binaryBackup{dir: dir, log: logging.GetLogger("updater")}
	b.recover()

	if err := b.restore(); err != nil {
		t.Fatalf("restore() failed: %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old build" {
		t.Errorf("Restored binary content = %q, want the backed-up build", got)
	}
}

func TestBinaryBackupRestoreWithoutBackup(t *testing.T) {
	b := &binaryBackup{dir: t.TempDir(), log: logging.GetLogger("updater")}
	if err := b.restore(); err == nil {
		t.Error("restore() with no backup should fail")
	}
}
