package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/poselink/poselink/internal/logging"
	"github.com/poselink/poselink/internal/version"
)

// restartDelay gives the HTTP layer time to flush the response before the
// process signals itself to exit.
const restartDelay = 500 * time.Millisecond

type service struct {
	repo    selfupdate.Repository
	updater *selfupdate.Updater
	backups *binaryBackup
	log     *slog.Logger

	// disabledReason is set once at construction; non-empty means every
	// operation short-circuits with ErrCodeDisabled.
	disabledReason string

	mu        sync.RWMutex
	state     State
	pending   *selfupdate.Release
	checkedAt *time.Time
	lastErr   error
}

// NewService builds the self-update service for the given release repository.
// When the running binary's directory is not writable the service still
// constructs, but reports itself disabled instead of failing half-way through
// an apply.
func NewService(opts *Options) (Service, error) {
	log := logging.GetLogger("updater")

	if reason := binaryNotReplaceable(); reason != "" {
		log.Warn("Self-update disabled", "reason", reason)
		return &service{
			disabledReason: reason,
			state:          StateIdle,
			log:            log,
		}, nil
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("github source: %w", err)
	}

	up, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("selfupdate: %w", err)
	}

	backups, err := newBinaryBackup(log)
	if err != nil {
		// Updates still work without rollback capability.
		log.Warn("Backup storage unavailable", "error", err)
	}

	return &service{
		repo:    selfupdate.ParseSlug(opts.Repository),
		updater: up,
		backups: backups,
		state:   StateIdle,
		log:     log,
	}, nil
}

// binaryNotReplaceable reports why the running binary cannot be swapped in
// place, or "" when it can. Swapping needs write access to the binary's
// directory, which a packaged install (system service, read-only mount)
// usually does not grant.
func binaryNotReplaceable() string {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Sprintf("cannot locate executable: %v", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Sprintf("cannot resolve executable path: %v", err)
	}

	dir := filepath.Dir(exe)
	scratch := filepath.Join(dir, ".poselink.update.test")
	f, err := os.Create(scratch)
	if err != nil {
		return fmt.Sprintf("%s is not writable: %v", dir, err)
	}
	f.Close()
	os.Remove(scratch)
	return ""
}

func (s *service) IsEnabled() bool {
	return s.disabledReason == ""
}

func (s *service) DisabledReason() string {
	return s.disabledReason
}

// CheckForUpdate asks the release repository for the newest version and
// compares it against the running one. Nothing is downloaded; a newer release
// is remembered so a later ApplyUpdate can fetch it.
func (s *service) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	if !s.IsEnabled() {
		return nil, newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	if !s.enter(StateChecking, StateIdle, StateAvailable, StateError) {
		return nil, newError(ErrCodeInvalidState,
			fmt.Sprintf("cannot check for updates while %s", s.stateNow()), nil)
	}

	release, found, err := s.updater.DetectLatest(ctx, s.repo)
	if err != nil {
		s.fail(err)
		return nil, newError(ErrCodeCheckFailed, "release lookup failed", err)
	}

	now := time.Now()
	s.mu.Lock()
	s.checkedAt = &now
	s.mu.Unlock()

	if !found {
		err := fmt.Errorf("repository not found or has no releases")
		s.fail(err)
		return nil, newError(ErrCodeNotFound, err.Error(), nil)
	}

	// A dev build never claims to be current.
	running := version.Version
	if running != "dev" && !release.GreaterThan(running) {
		s.enter(StateIdle)
		return &UpdateInfo{
			CurrentVersion:  running,
			LatestVersion:   release.Version(),
			UpdateAvailable: false,
		}, nil
	}

	s.mu.Lock()
	s.pending = release
	s.mu.Unlock()
	s.enter(StateAvailable)

	return &UpdateInfo{
		CurrentVersion:  running,
		LatestVersion:   release.Version(),
		ReleaseNotes:    release.ReleaseNotes,
		ReleaseURL:      release.URL,
		PublishedAt:     release.PublishedAt,
		AssetSize:       release.AssetByteSize,
		UpdateAvailable: true,
	}, nil
}

// ApplyUpdate swaps the running binary for the pending release. The current
// binary is backed up first so a bad release can be rolled back, and on
// success the process asks systemd for a restart by terminating itself.
func (s *service) ApplyUpdate(ctx context.Context) error {
	if !s.IsEnabled() {
		return newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	// Called without a prior check: do one now so "apply" works standalone.
	if s.stateNow() == StateIdle {
		info, err := s.CheckForUpdate(ctx)
		if err != nil {
			return err
		}
		if !info.UpdateAvailable {
			return newError(ErrCodeNoUpdate, "no update available", nil)
		}
	}

	if !s.enter(StateDownloading, StateAvailable) {
		return newError(ErrCodeInvalidState,
			fmt.Sprintf("cannot apply update while %s", s.stateNow()), nil)
	}

	if s.backups != nil {
		if err := s.backups.save(); err != nil {
			s.fail(err)
			return newError(ErrCodeBackupFailed, "could not back up current binary", err)
		}
	}

	s.enter(StateApplying)

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		s.fail(err)
		s.recoverFromBackup()
		return newError(ErrCodeApplyFailed, "cannot locate executable", err)
	}

	s.mu.RLock()
	release := s.pending
	s.mu.RUnlock()

	if err := s.updater.UpdateTo(ctx, release, exe); err != nil {
		s.fail(err)
		s.recoverFromBackup()
		return newError(ErrCodeApplyFailed, "update failed", err)
	}

	s.enter(StateRestarting)
	s.log.Info("Update applied, restarting", "version", release.Version())
	s.scheduleRestart()
	return nil
}

// Rollback puts the backed-up binary back and restarts.
func (s *service) Rollback(_ context.Context) error {
	if !s.IsEnabled() {
		return newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	if s.backups == nil || !s.backups.exists() {
		return newError(ErrCodeNoBackup, "no backup available for rollback", nil)
	}

	if err := s.backups.restore(); err != nil {
		return newError(ErrCodeRollbackFailed, "backup restore failed", err)
	}

	s.enter(StateRolledBack)
	s.log.Info("Rollback complete, restarting")
	s.scheduleRestart()
	return nil
}

func (s *service) GetStatus(_ context.Context) *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := &Status{
		State:          s.state,
		CurrentVersion: version.Version,
		LastChecked:    s.checkedAt,
	}
	if s.pending != nil {
		status.TargetVersion = s.pending.Version()
	}
	if s.lastErr != nil {
		status.Error = s.lastErr.Error()
	}
	if s.backups != nil {
		status.BackupAvailable = s.backups.exists()
		status.BackupVersion = s.backups.version()
	}
	return status
}

// Restart terminates the process without touching the binary. systemd (or
// whatever supervises the service) brings it back up.
func (s *service) Restart(_ context.Context) error {
	s.log.Info("Restart requested")
	s.scheduleRestart()
	return nil
}

// enter moves to next, optionally requiring the current state to be one of
// from. A successful transition clears any recorded error.
func (s *service) enter(next State, from ...State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(from) > 0 && !slices.Contains(from, s.state) {
		return false
	}
	s.log.Debug("Update state change", "from", s.state, "to", next)
	s.state = next
	s.lastErr = nil
	return true
}

func (s *service) stateNow() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *service) fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.state = StateError
	s.mu.Unlock()
}

// recoverFromBackup is the failure path of ApplyUpdate: a half-applied update
// may have left a broken binary on disk, so restore the backup if one exists.
func (s *service) recoverFromBackup() {
	if s.backups == nil || !s.backups.exists() {
		s.log.Error("No backup to recover from after failed update")
		return
	}
	if err := s.backups.restore(); err != nil {
		s.log.Error("Backup restore failed", "error", err)
		return
	}
	s.enter(StateRolledBack)
	s.log.Info("Restored previous binary after failed update")
}

func (s *service) scheduleRestart() {
	go func() {
		time.Sleep(restartDelay)
		proc, err := os.FindProcess(os.Getpid())
		if err != nil {
			s.log.Error("Cannot find own process", "error", err)
			return
		}
		s.log.Info("Sending SIGTERM to trigger restart")
		if err := proc.Signal(syscall.SIGTERM); err != nil {
			s.log.Error("SIGTERM failed", "error", err)
		}
	}()
}
