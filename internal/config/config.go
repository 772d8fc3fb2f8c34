package config

import (
	"fmt"
)

// Accounts maps an environment key (e.g. "dev") to the account reference it
// addresses (e.g. a numeric AWS account ID). Immutable for the run.
type Accounts map[string]string

// Statement is one allow/deny rule inside a policy definition.
type Statement struct {
	Effect    string   `yaml:"effect"`
	Actions   []string `yaml:"actions"`
	Resources []string `yaml:"resources"`
}

// PolicyDefinition describes one named policy in the team catalog: zero or
// more authored statements plus optional references to pre-existing managed
// policies.
type PolicyDefinition struct {
	Description     string      `yaml:"description"`
	Statements      []Statement `yaml:"custom_statements"`
	ManagedPolicies []string    `yaml:"managed_policies"`
}

// Empty reports whether the definition carries nothing attachable.
func (d PolicyDefinition) Empty() bool {
	return len(d.Statements) == 0 && len(d.ManagedPolicies) == 0
}

// PermanentGrant is a standing access grant. It stays attached until revoked
// out-of-band.
type PermanentGrant struct {
	Description  string   `yaml:"description"`
	Environments []string `yaml:"environments"`
	Grants       []string `yaml:"grants"`
	Users        []string `yaml:"users"`
	Roles        []string `yaml:"roles"`
}

// TemporaryGrant is a time-boxed access grant for a single user in a single
// environment. Access is valid through the whole expiration day.
type TemporaryGrant struct {
	Description string         `yaml:"description"`
	Environment string         `yaml:"environment"`
	User        string         `yaml:"user"`
	Grant       string         `yaml:"grant"`
	Expiration  ExpirationDate `yaml:"expiration_date"`
}

// TeamConfig is the materialized configuration for one team: the four
// declarative documents, validated and typed. The engine treats it as
// read-only value data for the whole run.
type TeamConfig struct {
	Team      string
	Accounts  Accounts
	Policies  map[string]PolicyDefinition
	Permanent []PermanentGrant
	Temporary []TemporaryGrant
}

// Validate checks the structural shape of the loaded documents. Reference
// resolution (environments, grant keys) is deliberately left to apply time,
// where a dangling reference skips a single unit of work instead of failing
// the load.
func (c *TeamConfig) Validate() error {
	for key, def := range c.Policies {
		for i, stmt := range def.Statements {
			if stmt.Effect != "Allow" && stmt.Effect != "Deny" {
				return fmt.Errorf("policy %q statement %d: effect must be Allow or Deny, got %q", key, i, stmt.Effect)
			}
		}
	}
	for i, grant := range c.Temporary {
		if grant.User == "" {
			return fmt.Errorf("temporary-access entry %d (%s): user is required", i, grant.Description)
		}
		if grant.Grant == "" {
			return fmt.Errorf("temporary-access entry %d (%s): grant is required", i, grant.Description)
		}
	}
	return nil
}
