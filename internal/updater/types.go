package updater

import (
	"context"
	"time"
)

// State names where the updater is in its check/download/apply cycle.
type State string

const (
	StateIdle        State = "idle"
	StateChecking    State = "checking"
	StateAvailable   State = "available"
	StateDownloading State = "downloading"
	StateApplying    State = "applying"
	StateRestarting  State = "restarting"
	StateError       State = "error"
	StateRolledBack  State = "rolled_back"
)

// Service is the self-update surface exposed to the API and the CLI.
type Service interface {
	// CheckForUpdate compares the running version against the newest
	// release without downloading anything.
	CheckForUpdate(ctx context.Context) (*UpdateInfo, error)

	// ApplyUpdate downloads the pending release, swaps the binary, and
	// triggers a restart.
	ApplyUpdate(ctx context.Context) error

	// Rollback restores the previous binary and triggers a restart.
	Rollback(ctx context.Context) error

	// GetStatus reports the current update state.
	GetStatus(ctx context.Context) *Status

	// Restart terminates the process so its supervisor relaunches it.
	Restart(ctx context.Context) error

	// IsEnabled is false when the binary cannot be replaced in place,
	// typically a packaged install without write access.
	IsEnabled() bool

	// DisabledReason explains a false IsEnabled; empty otherwise.
	DisabledReason() string
}

// UpdateInfo is the result of a version check.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseNotes    string    `json:"release_notes"`
	ReleaseURL      string    `json:"release_url"`
	PublishedAt     time.Time `json:"published_at"`
	AssetSize       int       `json:"asset_size"`
	UpdateAvailable bool      `json:"update_available"`
}

// Status is a point-in-time snapshot of the updater.
type Status struct {
	State           State      `json:"state"`
	CurrentVersion  string     `json:"current_version"`
	TargetVersion   string     `json:"target_version,omitempty"`
	Progress        int        `json:"progress,omitempty"`
	Error           string     `json:"error,omitempty"`
	LastChecked     *time.Time `json:"last_checked,omitempty"`
	BackupAvailable bool       `json:"backup_available"`
	BackupVersion   string     `json:"backup_version,omitempty"`
}

// Options configures where releases are fetched from.
type Options struct {
	Repository string // GitHub slug, e.g. "poselink/poselink"
	Prerelease bool
}
