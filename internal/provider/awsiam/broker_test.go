package awsiam

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stclaird/cloud-iam-self-serve/internal/provider"
)

func TestBroker_CachesMintedClients(t *testing.T) {
	broker := NewBroker(aws.Config{}, "example-team", "")

	minted := 0
	broker.mint = func(ctx context.Context, accountID string) (provider.IAM, error) {
		minted++
		return &Client{api: &stubAPI{}}, nil
	}

	ctx := context.Background()
	first, err := broker.Acquire(ctx, "111")
	require.NoError(t, err)
	defer first.Close()

	second, err := broker.Acquire(ctx, "111")
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, 1, minted, "repeat acquisitions reuse the cached session")
	assert.Same(t, first.IAM(), second.IAM())

	_, err = broker.Acquire(ctx, "222")
	require.NoError(t, err)
	assert.Equal(t, 2, minted, "each account gets its own session")
}

func TestBroker_MintFailureIsNotCached(t *testing.T) {
	broker := NewBroker(aws.Config{}, "example-team", "")

	var mintErr error = errors.New("access denied")
	broker.mint = func(ctx context.Context, accountID string) (provider.IAM, error) {
		if mintErr != nil {
			return nil, mintErr
		}
		return &Client{api: &stubAPI{}}, nil
	}

	ctx := context.Background()
	_, err := broker.Acquire(ctx, "111")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account 111")

	// Once the role becomes assumable the broker recovers.
	mintErr = nil
	session, err := broker.Acquire(ctx, "111")
	require.NoError(t, err)
	session.Close()
}

func TestNewBroker_DefaultRole(t *testing.T) {
	broker := NewBroker(aws.Config{}, "example-team", "")
	assert.Equal(t, DefaultDeployerRole, broker.roleName)

	custom := NewBroker(aws.Config{}, "example-team", "CustomDeployer")
	assert.Equal(t, "CustomDeployer", custom.roleName)
}
