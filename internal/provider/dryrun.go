package provider

import (
	"context"

	"github.com/pterm/pterm"
)

// DryRun wraps an IAM handle so every mutating call is replaced by a logged
// intent while reads pass through. This is the single mechanism behind
// --dry-run: the engine above it runs unchanged, and the run issues zero
// mutating calls.
type DryRun struct {
	backend IAM
	logger  *pterm.Logger
}

// NewDryRun wraps backend; intents are logged through logger.
func NewDryRun(backend IAM, logger *pterm.Logger) *DryRun {
	return &DryRun{backend: backend, logger: logger}
}

func (d *DryRun) LookupPolicy(ctx context.Context, arn string) (bool, error) {
	return d.backend.LookupPolicy(ctx, arn)
}

func (d *DryRun) ListPolicyVersions(ctx context.Context, arn string) ([]PolicyVersion, error) {
	return d.backend.ListPolicyVersions(ctx, arn)
}

// CreatePolicy returns an empty ARN; callers fall back to the deterministic
// ARN so downstream phases can still be exercised.
func (d *DryRun) CreatePolicy(ctx context.Context, name, description, document string) (string, error) {
	d.logger.Info("would create policy", d.logger.Args("policy", name))
	return "", nil
}

func (d *DryRun) CreatePolicyVersion(ctx context.Context, arn, document string) error {
	d.logger.Info("would publish new policy version", d.logger.Args("policy", arn))
	return nil
}

func (d *DryRun) DeletePolicyVersion(ctx context.Context, arn, versionID string) error {
	d.logger.Info("would delete policy version", d.logger.Args("policy", arn, "version", versionID))
	return nil
}

func (d *DryRun) AttachUserPolicy(ctx context.Context, user, arn string) error {
	d.logger.Info("would attach policy to user", d.logger.Args("user", user, "policy", arn))
	return nil
}

func (d *DryRun) AttachRolePolicy(ctx context.Context, role, arn string) error {
	d.logger.Info("would attach policy to role", d.logger.Args("role", role, "policy", arn))
	return nil
}

func (d *DryRun) PutUserPolicy(ctx context.Context, user, policyName, document string) error {
	d.logger.Info("would create temporary inline policy", d.logger.Args("user", user, "policy", policyName))
	return nil
}

func (d *DryRun) DeleteUserPolicy(ctx context.Context, user, policyName string) error {
	d.logger.Info("would remove temporary inline policy", d.logger.Args("user", user, "policy", policyName))
	return nil
}
