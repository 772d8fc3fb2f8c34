package awsiam

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAPI returns canned responses per operation so the adapter's mapping
// logic can be exercised without AWS.
type stubAPI struct {
	getPolicyErr        error
	createPolicyARN     string
	listVersionsOutput  *iam.ListPolicyVersionsOutput
	deleteUserPolicyErr error

	putUserPolicyCalls int
}

func (s *stubAPI) GetPolicy(ctx context.Context, in *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error) {
	if s.getPolicyErr != nil {
		return nil, s.getPolicyErr
	}
	return &iam.GetPolicyOutput{Policy: &iamtypes.Policy{Arn: in.PolicyArn}}, nil
}

func (s *stubAPI) CreatePolicy(ctx context.Context, in *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
	return &iam.CreatePolicyOutput{Policy: &iamtypes.Policy{Arn: aws.String(s.createPolicyARN)}}, nil
}

func (s *stubAPI) CreatePolicyVersion(ctx context.Context, in *iam.CreatePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyVersionOutput, error) {
	return &iam.CreatePolicyVersionOutput{}, nil
}

func (s *stubAPI) ListPolicyVersions(ctx context.Context, in *iam.ListPolicyVersionsInput, optFns ...func(*iam.Options)) (*iam.ListPolicyVersionsOutput, error) {
	return s.listVersionsOutput, nil
}

func (s *stubAPI) DeletePolicyVersion(ctx context.Context, in *iam.DeletePolicyVersionInput, optFns ...func(*iam.Options)) (*iam.DeletePolicyVersionOutput, error) {
	return &iam.DeletePolicyVersionOutput{}, nil
}

func (s *stubAPI) AttachUserPolicy(ctx context.Context, in *iam.AttachUserPolicyInput, optFns ...func(*iam.Options)) (*iam.AttachUserPolicyOutput, error) {
	return &iam.AttachUserPolicyOutput{}, nil
}

func (s *stubAPI) AttachRolePolicy(ctx context.Context, in *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	return &iam.AttachRolePolicyOutput{}, nil
}

func (s *stubAPI) PutUserPolicy(ctx context.Context, in *iam.PutUserPolicyInput, optFns ...func(*iam.Options)) (*iam.PutUserPolicyOutput, error) {
	s.putUserPolicyCalls++
	return &iam.PutUserPolicyOutput{}, nil
}

func (s *stubAPI) DeleteUserPolicy(ctx context.Context, in *iam.DeleteUserPolicyInput, optFns ...func(*iam.Options)) (*iam.DeleteUserPolicyOutput, error) {
	if s.deleteUserPolicyErr != nil {
		return nil, s.deleteUserPolicyErr
	}
	return &iam.DeleteUserPolicyOutput{}, nil
}

func TestLookupPolicy_Found(t *testing.T) {
	client := &Client{api: &stubAPI{}}
	found, err := client.LookupPolicy(context.Background(), "arn:aws:iam::111:policy/p")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestLookupPolicy_NoSuchEntityIsNotFoundNotError(t *testing.T) {
	client := &Client{api: &stubAPI{getPolicyErr: &iamtypes.NoSuchEntityException{}}}
	found, err := client.LookupPolicy(context.Background(), "arn:aws:iam::111:policy/p")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLookupPolicy_OtherErrorSurfaces(t *testing.T) {
	client := &Client{api: &stubAPI{getPolicyErr: errors.New("throttled")}}
	_, err := client.LookupPolicy(context.Background(), "arn:aws:iam::111:policy/p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestCreatePolicy_ReturnsARN(t *testing.T) {
	client := &Client{api: &stubAPI{createPolicyARN: "arn:aws:iam::111:policy/created"}}
	arn, err := client.CreatePolicy(context.Background(), "created", "desc", "{}")
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:iam::111:policy/created", arn)
}

func TestListPolicyVersions_Mapping(t *testing.T) {
	created := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	client := &Client{api: &stubAPI{listVersionsOutput: &iam.ListPolicyVersionsOutput{
		Versions: []iamtypes.PolicyVersion{
			{VersionId: aws.String("v2"), CreateDate: aws.Time(created.Add(time.Hour)), IsDefaultVersion: true},
			{VersionId: aws.String("v1"), CreateDate: aws.Time(created), IsDefaultVersion: false},
		},
	}}}

	versions, err := client.ListPolicyVersions(context.Background(), "arn:aws:iam::111:policy/p")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "v2", versions[0].ID)
	assert.True(t, versions[0].IsDefault)
	assert.Equal(t, created, versions[1].CreatedAt)
}

func TestDeleteUserPolicy_AbsenceIsSuccess(t *testing.T) {
	client := &Client{api: &stubAPI{deleteUserPolicyErr: &iamtypes.NoSuchEntityException{}}}
	err := client.DeleteUserPolicy(context.Background(), "alice", "temp-policy")
	assert.NoError(t, err)
}

func TestDeleteUserPolicy_OtherErrorSurfaces(t *testing.T) {
	client := &Client{api: &stubAPI{deleteUserPolicyErr: errors.New("access denied")}}
	err := client.DeleteUserPolicy(context.Background(), "alice", "temp-policy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
