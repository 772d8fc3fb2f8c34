package engine

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"

	"github.com/stclaird/cloud-iam-self-serve/internal/config"
	"github.com/stclaird/cloud-iam-self-serve/internal/policy"
	"github.com/stclaird/cloud-iam-self-serve/internal/provider"
)

// TemporaryAccess materializes and removes time-boxed inline grants. The
// inline policy name is fully determined by (team, grant, user), so
// granting twice overwrites instead of duplicating, and revocation can
// reconstruct the name without any stored state.
type TemporaryAccess struct {
	team     string
	catalog  map[string]config.PolicyDefinition
	attacher *GrantAttacher
	logger   *pterm.Logger
}

// Grant installs the grant's custom statements as an inline per-user policy
// whose statements all expire at the end of the expiration day. Returns
// false without error when nothing was installed: an unknown grant key, or
// a definition with no custom statements (temporary access cannot be
// granted purely via managed policies).
func (t *TemporaryAccess) Grant(ctx context.Context, iamc provider.IAM, user, grantKey string, expiry config.ExpirationDate) (bool, error) {
	def, ok := t.catalog[grantKey]
	if !ok {
		t.logger.Warn("grant not found in policy catalog", t.logger.Args("grant", grantKey))
		return false, nil
	}

	doc, ok := policy.NewExpiringDocument(def.Statements, expiry)
	if !ok {
		t.logger.Warn("no custom statements to apply for temporary access",
			t.logger.Args("grant", grantKey))
		return false, nil
	}
	body, err := doc.JSON()
	if err != nil {
		return false, err
	}

	name := policy.TempName(t.team, grantKey, user)
	if err := iamc.PutUserPolicy(ctx, policy.PrincipalName(user), name, body); err != nil {
		return false, fmt.Errorf("grant temporary access to %s: %w", user, err)
	}
	t.logger.Info("granted temporary access",
		t.logger.Args("user", user, "grant", grantKey, "until", expiry.String()))

	// Managed policies referenced by the grant are attached as standing
	// attachments: unlike the inline statements they never expire and
	// must be revoked manually.
	if len(def.ManagedPolicies) > 0 {
		t.logger.Warn("managed policies do not expire automatically, manual cleanup needed",
			t.logger.Args("user", user, "grant", grantKey))
		t.attacher.AttachManaged(ctx, iamc, user, def.ManagedPolicies, false)
	}
	return true, nil
}

// Revoke deletes the grant's inline policy. A policy that is already gone
// counts as revoked.
func (t *TemporaryAccess) Revoke(ctx context.Context, iamc provider.IAM, user, grantKey string) error {
	name := policy.TempName(t.team, grantKey, user)
	if err := iamc.DeleteUserPolicy(ctx, policy.PrincipalName(user), name); err != nil {
		return fmt.Errorf("revoke temporary access from %s: %w", user, err)
	}
	t.logger.Info("removed temporary access", t.logger.Args("user", user, "grant", grantKey))
	return nil
}
