package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/pterm/pterm"

	"github.com/stclaird/cloud-iam-self-serve/internal/config"
	"github.com/stclaird/cloud-iam-self-serve/internal/policy"
	"github.com/stclaird/cloud-iam-self-serve/internal/provider"
)

// VersionCeiling is the maximum number of non-default historical versions
// retained per policy per account.
const VersionCeiling = 3

// PolicyLifecycle creates and updates named policy documents in target
// accounts and enforces the version-retention ceiling.
//
// Updates always publish a new default version, even when the document is
// unchanged; no-op detection is out of scope and the ceiling keeps the
// retained count bounded either way.
type PolicyLifecycle struct {
	team   string
	logger *pterm.Logger
}

// Converge makes the remote policy for (account, key) match the definition.
// The returned reference is nil when the definition has nothing attachable;
// a managed-only definition yields a reference with an empty ARN so its
// managed policies still reach the grant phases.
func (l *PolicyLifecycle) Converge(ctx context.Context, iamc provider.IAM, accountID, key string, def config.PolicyDefinition) (*PolicyRef, error) {
	doc, hasCustom := policy.NewDocument(def.Statements)
	if !hasCustom {
		if len(def.ManagedPolicies) == 0 {
			l.logger.Warn("policy has no statements or managed policies",
				l.logger.Args("policy", key))
			return nil, nil
		}
		return &PolicyRef{Managed: def.ManagedPolicies}, nil
	}

	name := policy.Name(l.team, key)
	arn := policy.ARN(accountID, name)
	body, err := doc.JSON()
	if err != nil {
		return nil, err
	}

	found, err := iamc.LookupPolicy(ctx, arn)
	if err != nil {
		return nil, err
	}

	if !found {
		description := fmt.Sprintf("%s (managed by cloud-iam-self-serve for %s)", def.Description, l.team)
		created, err := iamc.CreatePolicy(ctx, name, description, body)
		if err != nil {
			return nil, err
		}
		// Dry-run returns no ARN; keep the deterministic one so the
		// grant phases can still be exercised.
		if created != "" {
			arn = created
		}
		l.logger.Info("created policy", l.logger.Args("policy", name, "account", accountID))
		return &PolicyRef{ARN: arn, Managed: def.ManagedPolicies}, nil
	}

	if err := iamc.CreatePolicyVersion(ctx, arn, body); err != nil {
		return nil, err
	}
	if err := l.enforceCeiling(ctx, iamc, arn); err != nil {
		return nil, err
	}
	l.logger.Info("updated policy", l.logger.Args("policy", name, "account", accountID))
	return &PolicyRef{ARN: arn, Managed: def.ManagedPolicies}, nil
}

// enforceCeiling deletes the single oldest non-default version once more
// than VersionCeiling of them are retained. The default version is never a
// candidate.
func (l *PolicyLifecycle) enforceCeiling(ctx context.Context, iamc provider.IAM, arn string) error {
	versions, err := iamc.ListPolicyVersions(ctx, arn)
	if err != nil {
		return err
	}
	var nonDefault []provider.PolicyVersion
	for _, v := range versions {
		if !v.IsDefault {
			nonDefault = append(nonDefault, v)
		}
	}
	if len(nonDefault) <= VersionCeiling {
		return nil
	}
	sort.Slice(nonDefault, func(i, j int) bool {
		return nonDefault[i].CreatedAt.Before(nonDefault[j].CreatedAt)
	})
	oldest := nonDefault[0]
	l.logger.Info("retention ceiling exceeded, deleting oldest version",
		l.logger.Args("policy", arn, "version", oldest.ID))
	return iamc.DeletePolicyVersion(ctx, arn, oldest.ID)
}
