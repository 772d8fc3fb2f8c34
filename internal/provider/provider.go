// Package provider defines the capability surface the reconciliation engine
// needs from an identity-management backend. Any backend exposing these
// operations is substitutable; the AWS implementation lives in awsiam.
package provider

import (
	"context"
	"time"
)

// PolicyVersion describes one stored version of a managed policy.
type PolicyVersion struct {
	ID        string
	CreatedAt time.Time
	IsDefault bool
}

// IAM is an authenticated administrative handle scoped to one account.
//
// Lookup-style operations report absence as a tagged result, never as an
// error: callers branch on the returned flag instead of error identity.
// Mutating operations are expected to be idempotent where the remote API
// allows it (attaching an already-attached policy is a no-op).
type IAM interface {
	// LookupPolicy reports whether a policy with the given ARN exists.
	LookupPolicy(ctx context.Context, arn string) (bool, error)

	// CreatePolicy creates a named policy and returns its ARN.
	CreatePolicy(ctx context.Context, name, description, document string) (string, error)

	// CreatePolicyVersion publishes a new default version of an existing
	// policy.
	CreatePolicyVersion(ctx context.Context, arn, document string) error

	ListPolicyVersions(ctx context.Context, arn string) ([]PolicyVersion, error)
	DeletePolicyVersion(ctx context.Context, arn, versionID string) error

	AttachUserPolicy(ctx context.Context, user, arn string) error
	AttachRolePolicy(ctx context.Context, role, arn string) error

	// PutUserPolicy installs (or overwrites) an inline per-user policy.
	PutUserPolicy(ctx context.Context, user, policyName, document string) error

	// DeleteUserPolicy removes an inline per-user policy. Absence of the
	// named policy is success, not an error.
	DeleteUserPolicy(ctx context.Context, user, policyName string) error
}

// Session is a scoped administrative handle on one target account. Callers
// acquire a session per unit of work and release it with Close when the
// unit completes.
type Session interface {
	IAM() IAM
	Close()
}

// Broker mints sessions for target accounts.
type Broker interface {
	Acquire(ctx context.Context, accountID string) (Session, error)
}
