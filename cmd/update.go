package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poselink/poselink/internal/logging"
	"github.com/poselink/poselink/internal/updater"
	"github.com/poselink/poselink/internal/version"
)

// CreateUpdateCmd creates the update command for checking and applying
// self-updates from the command line.
func CreateUpdateCmd() *cobra.Command {
	var (
		repository string
		apply      bool
		prerelease bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for and apply self-updates",
		Long: `Check the release repository for a newer version. With --apply the
new binary is downloaded and swapped in place; the previous binary is kept
as a backup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			svc, err := updater.NewService(&updater.Options{
				Repository: repository,
				Prerelease: prerelease,
			})
			if err != nil {
				return fmt.Errorf("create update service: %w", err)
			}
			if !svc.IsEnabled() {
				return fmt.Errorf("updates disabled: %s", svc.DisabledReason())
			}

			info, err := svc.CheckForUpdate(cmd.Context())
			if err != nil {
				return fmt.Errorf("check for update: %w", err)
			}

			if !info.UpdateAvailable {
				fmt.Printf("Already up to date (%s)\n", version.String())
				return nil
			}

			fmt.Printf("Update available: %s -> %s\n", info.CurrentVersion, info.LatestVersion)
			if info.ReleaseURL != "" {
				fmt.Printf("Release: %s\n", info.ReleaseURL)
			}
			if !apply {
				fmt.Println("Run again with --apply to install")
				return nil
			}

			if err := svc.ApplyUpdate(cmd.Context()); err != nil {
				return fmt.Errorf("apply update: %w", err)
			}
			fmt.Printf("Updated to %s\n", info.LatestVersion)
			return nil
		},
	}

	cmd.Flags().StringVarP(&repository, "repository", "r", "poselink/poselink",
		"GitHub repository to check for releases")
	cmd.Flags().BoolVar(&apply, "apply", false, "Download and install the update")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Include prereleases")

	return cmd
}
