package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/stclaird/cloud-iam-self-serve/internal/config"
	"github.com/stclaird/cloud-iam-self-serve/internal/engine"
	"github.com/stclaird/cloud-iam-self-serve/internal/provider/awsiam"
)

var (
	configDir    string
	deployerRole string
)

var rootCmd = &cobra.Command{
	Use:   "iamctl",
	Short: "IAM-as-code reconciliation for team cloud accounts",
	Long: `iamctl converges declared IAM intent - policies, standing grants, and
time-boxed elevated access - against the live state of a team's accounts.

Team configuration is read from four YAML documents under the configuration
root: aws-accounts/, aws-policies/, permanent-access/ and temporary-access/.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir",
		envOrDefault("IAMCTL_CONFIG_DIR", "."), "Root of the team configuration tree")
	rootCmd.PersistentFlags().StringVar(&deployerRole, "deployer-role",
		envOrDefault("IAMCTL_DEPLOYER_ROLE", awsiam.DefaultDeployerRole),
		"Cross-account role assumed in each target account")
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadTeam loads the four team documents, rendering the expected file
// locations when one is missing.
func loadTeam(team string) (*config.TeamConfig, error) {
	cfg, err := config.Load(configDir, team)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			pterm.Error.Println("Configuration file not found")
			pterm.Info.Println("Make sure the following files exist:")
			for _, path := range config.Paths(configDir, team) {
				pterm.Info.Printf("  - %s\n", path)
			}
		}
		return nil, err
	}
	return cfg, nil
}

// newEngine wires a reconciliation engine over the AWS session broker.
func newEngine(ctx context.Context, cfg *config.TeamConfig, dryRun bool) (*engine.Engine, error) {
	awscfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS configuration: %w", err)
	}
	broker := awsiam.NewBroker(awscfg, cfg.Team, deployerRole)

	opts := []engine.Option{}
	if dryRun {
		opts = append(opts, engine.WithDryRun())
	}
	return engine.New(cfg, broker, opts...), nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
