// Package awsiam implements the provider capability surface on AWS IAM,
// with cross-account sessions minted through STS AssumeRole.
package awsiam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/stclaird/cloud-iam-self-serve/internal/provider"
)

// api is the subset of the SDK IAM client the adapter uses. Narrowing to an
// interface keeps the error-mapping logic testable without AWS.
type api interface {
	GetPolicy(ctx context.Context, in *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error)
	CreatePolicy(ctx context.Context, in *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error)
	CreatePolicyVersion(ctx context.Context, in *iam.CreatePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyVersionOutput, error)
	ListPolicyVersions(ctx context.Context, in *iam.ListPolicyVersionsInput, optFns ...func(*iam.Options)) (*iam.ListPolicyVersionsOutput, error)
	DeletePolicyVersion(ctx context.Context, in *iam.DeletePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.DeletePolicyVersionOutput, error)
	AttachUserPolicy(ctx context.Context, in *iam.AttachUserPolicyInput, optFns ...func(*iam.Options)) (*iam.AttachUserPolicyOutput, error)
	AttachRolePolicy(ctx context.Context, in *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error)
	PutUserPolicy(ctx context.Context, in *iam.PutUserPolicyInput, optFns ...func(*iam.Options)) (*iam.PutUserPolicyOutput, error)
	DeleteUserPolicy(ctx context.Context, in *iam.DeleteUserPolicyInput, optFns ...func(*iam.Options)) (*iam.DeleteUserPolicyOutput, error)
}

// Client adapts an SDK IAM client to the provider capability surface. The
// "no such entity" condition is mapped to tagged results here and nowhere
// else.
type Client struct {
	api api
}

// NewClient wraps an SDK IAM client.
func NewClient(c *iam.Client) *Client {
	return &Client{api: c}
}

func (c *Client) LookupPolicy(ctx context.Context, arn string) (bool, error) {
	_, err := c.api.GetPolicy(ctx, &iam.GetPolicyInput{PolicyArn: aws.String(arn)})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("get policy %s: %w", arn, err)
	}
	return true, nil
}

func (c *Client) CreatePolicy(ctx context.Context, name, description, document string) (string, error) {
	out, err := c.api.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     aws.String(name),
		PolicyDocument: aws.String(document),
		Description:    aws.String(description),
	})
	if err != nil {
		return "", fmt.Errorf("create policy %s: %w", name, err)
	}
	return aws.ToString(out.Policy.Arn), nil
}

func (c *Client) CreatePolicyVersion(ctx context.Context, arn, document string) error {
	_, err := c.api.CreatePolicyVersion(ctx, &iam.CreatePolicyVersionInput{
		PolicyArn:      aws.String(arn),
		PolicyDocument: aws.String(document),
		SetAsDefault:   true,
	})
	if err != nil {
		return fmt.Errorf("create policy version for %s: %w", arn, err)
	}
	return nil
}

func (c *Client) ListPolicyVersions(ctx context.Context, arn string) ([]provider.PolicyVersion, error) {
	out, err := c.api.ListPolicyVersions(ctx, &iam.ListPolicyVersionsInput{PolicyArn: aws.String(arn)})
	if err != nil {
		return nil, fmt.Errorf("list policy versions for %s: %w", arn, err)
	}
	versions := make([]provider.PolicyVersion, 0, len(out.Versions))
	for _, v := range out.Versions {
		var created time.Time
		if v.CreateDate != nil {
			created = *v.CreateDate
		}
		versions = append(versions, provider.PolicyVersion{
			ID:        aws.ToString(v.VersionId),
			CreatedAt: created,
			IsDefault: v.IsDefaultVersion,
		})
	}
	return versions, nil
}

func (c *Client) DeletePolicyVersion(ctx context.Context, arn, versionID string) error {
	_, err := c.api.DeletePolicyVersion(ctx, &iam.DeletePolicyVersionInput{
		PolicyArn: aws.String(arn),
		VersionId: aws.String(versionID),
	})
	if err != nil {
		return fmt.Errorf("delete policy version %s of %s: %w", versionID, arn, err)
	}
	return nil
}

func (c *Client) AttachUserPolicy(ctx context.Context, user, arn string) error {
	_, err := c.api.AttachUserPolicy(ctx, &iam.AttachUserPolicyInput{
		UserName:  aws.String(user),
		PolicyArn: aws.String(arn),
	})
	if err != nil {
		return fmt.Errorf("attach policy %s to user %s: %w", arn, user, err)
	}
	return nil
}

func (c *Client) AttachRolePolicy(ctx context.Context, role, arn string) error {
	_, err := c.api.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(role),
		PolicyArn: aws.String(arn),
	})
	if err != nil {
		return fmt.Errorf("attach policy %s to role %s: %w", arn, role, err)
	}
	return nil
}

func (c *Client) PutUserPolicy(ctx context.Context, user, policyName, document string) error {
	_, err := c.api.PutUserPolicy(ctx, &iam.PutUserPolicyInput{
		UserName:       aws.String(user),
		PolicyName:     aws.String(policyName),
		PolicyDocument: aws.String(document),
	})
	if err != nil {
		return fmt.Errorf("put inline policy %s for user %s: %w", policyName, user, err)
	}
	return nil
}

func (c *Client) DeleteUserPolicy(ctx context.Context, user, policyName string) error {
	_, err := c.api.DeleteUserPolicy(ctx, &iam.DeleteUserPolicyInput{
		UserName:   aws.String(user),
		PolicyName: aws.String(policyName),
	})
	if err != nil {
		if isNotFound(err) {
			// Already revoked.
			return nil
		}
		return fmt.Errorf("delete inline policy %s for user %s: %w", policyName, user, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound *iamtypes.NoSuchEntityException
	return errors.As(err, &notFound)
}
