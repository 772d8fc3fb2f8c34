package engine

import (
	"io"
	"time"

	"github.com/pterm/pterm"

	"github.com/stclaird/cloud-iam-self-serve/internal/config"
)

// Test clock: all engine tests run "today" at this instant.
var testNow = time.Date(2026, time.August, 28, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func silentLogger() *pterm.Logger {
	return pterm.DefaultLogger.WithWriter(io.Discard)
}

func capturedLogger(w io.Writer) *pterm.Logger {
	return pterm.DefaultLogger.WithWriter(w)
}

// teamConfig returns a baseline scenario: two accounts, one custom policy,
// one managed-only policy, a permanent grant and a temporary grant.
func teamConfig() *config.TeamConfig {
	return &config.TeamConfig{
		Team: "example-team",
		Accounts: config.Accounts{
			"dev":  "111",
			"prod": "222",
		},
		Policies: map[string]config.PolicyDefinition{
			"s3-read": {
				Description: "Read access to the team bucket",
				Statements: []config.Statement{
					{
						Effect:    "Allow",
						Actions:   []string{"s3:GetObject"},
						Resources: []string{"arn:aws:s3:::team-bucket/*"},
					},
				},
			},
		},
		Permanent: []config.PermanentGrant{
			{
				Description:  "Engineers read the team bucket",
				Environments: []string{"dev"},
				Grants:       []string{"s3-read"},
				Users:        []string{"alice@co.com"},
				Roles:        []string{"ci-deploy"},
			},
		},
		Temporary: []config.TemporaryGrant{
			{
				Description: "Incident access for alice",
				Environment: "dev",
				User:        "alice@co.com",
				Grant:       "s3-read",
				Expiration:  config.Date(2026, time.August, 30), // today + 2
			},
		},
	}
}
