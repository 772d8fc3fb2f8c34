package engine

import (
	"context"

	"github.com/pterm/pterm"

	"github.com/stclaird/cloud-iam-self-serve/internal/policy"
	"github.com/stclaird/cloud-iam-self-serve/internal/provider"
)

// GrantAttacher attaches existing policies to users and roles. It does not
// pre-check attachment state: the provider's attach operation is a no-op
// for an already-attached policy.
type GrantAttacher struct {
	logger *pterm.Logger
}

// Attach attaches one policy to one principal. User identities are reduced
// to their short handle; role names are used verbatim.
func (a *GrantAttacher) Attach(ctx context.Context, iamc provider.IAM, principal, arn string, isRole bool) error {
	if isRole {
		return iamc.AttachRolePolicy(ctx, principal, arn)
	}
	return iamc.AttachUserPolicy(ctx, policy.PrincipalName(principal), arn)
}

// AttachManaged attaches a set of managed policies to one principal,
// logging and continuing past per-policy failures. Returns the number
// attached.
func (a *GrantAttacher) AttachManaged(ctx context.Context, iamc provider.IAM, principal string, arns []string, isRole bool) int {
	attached := 0
	for _, arn := range arns {
		if err := a.Attach(ctx, iamc, principal, arn, isRole); err != nil {
			a.logger.Error("attach managed policy failed",
				a.logger.Args("principal", principal, "policy", arn, "error", err.Error()))
			continue
		}
		attached++
	}
	return attached
}
