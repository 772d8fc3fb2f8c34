package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var cleanupDryRun bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <team>",
	Short: "Remove expired temporary access grants",
	Long: `cleanup scans the team's temporary-access list, revokes every grant whose
expiration date has passed, and reports expired vs. active counts. Policies
and permanent grants are never touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		team := args[0]
		if cleanupDryRun {
			pterm.Info.Println("Dry-run mode - no changes will be made")
		}

		cfg, err := loadTeam(team)
		if err != nil {
			return err
		}
		eng, err := newEngine(cmd.Context(), cfg, cleanupDryRun)
		if err != nil {
			return err
		}

		pterm.DefaultSection.Printf("Cleaning up expired temporary access for team %s\n", team)
		report := eng.Cleanup(cmd.Context())

		pterm.DefaultSection.Println("Summary")
		pterm.Info.Printf("Expired grants cleaned up: %d\n", report.Expired)
		pterm.Info.Printf("Active grants remaining:   %d\n", report.Active)
		if report.Failed > 0 {
			pterm.Warning.Printf("Failed removals:           %d\n", report.Failed)
		}
		return nil
	},
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "Log intended changes without making them")
}
