package cmd

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/stclaird/cloud-iam-self-serve/internal/config"
	"github.com/stclaird/cloud-iam-self-serve/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <team>",
	Short: "Check temporary-access expiration dates against the lead-time window",
	Long: `validate is a static pre-merge check on the team's temporary-access
document: every expiration date must be a well-formed calendar date no more
than six days in the future. Violations exit non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		team := args[0]
		grants, src, err := config.LoadTemporaryAccess(configDir, team)
		if err != nil {
			return err
		}

		now := time.Now()
		pterm.DefaultSection.Printf("Validating temporary access for team %s\n", team)

		violations := validate.Expirations(grants, now)
		if len(violations) == 0 {
			pterm.Success.Println("All expiration dates are within policy limits")
			pterm.Info.Printf("Current date:    %s\n", config.DateOf(now))
			pterm.Info.Printf("Maximum allowed: %s\n", validate.Window(now))
			return nil
		}

		for _, v := range violations {
			fmt.Fprint(cmd.OutOrStdout(), validate.RenderContext(src, v, 3))
		}
		pterm.Error.Printf("Validation failed: %d expiration date violation(s)\n", len(violations))
		pterm.Info.Printf("Maximum allowed expiration date: %s\n", validate.Window(now))
		return fmt.Errorf("%d expiration date violation(s)", len(violations))
	},
}
