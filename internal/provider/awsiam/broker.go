package awsiam

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/stclaird/cloud-iam-self-serve/internal/provider"
)

// DefaultDeployerRole is the cross-account role assumed in each target
// account.
const DefaultDeployerRole = "IAMAsCodeDeployer"

const (
	// sessionTTL keeps cached clients comfortably inside the default
	// one-hour STS credential lifetime.
	sessionTTL        = 50 * time.Minute
	maxCachedSessions = 16
)

// Broker mints per-account IAM handles by assuming the deployer role via
// STS. Minted clients are cached with a TTL so consecutive units of work
// against the same account reuse one assumed-role session; the cache is
// bounded and entries expire before their credentials do.
type Broker struct {
	team     string
	roleName string
	cache    *lru.LRU[string, provider.IAM]
	mint     func(ctx context.Context, accountID string) (provider.IAM, error)
}

// NewBroker builds a broker from base credentials. roleName is the
// cross-account role to assume in each target account; empty selects
// DefaultDeployerRole.
func NewBroker(cfg aws.Config, team, roleName string) *Broker {
	if roleName == "" {
		roleName = DefaultDeployerRole
	}
	b := &Broker{
		team:     team,
		roleName: roleName,
		cache:    lru.NewLRU[string, provider.IAM](maxCachedSessions, nil, sessionTTL),
	}
	stsClient := sts.NewFromConfig(cfg)
	b.mint = func(ctx context.Context, accountID string) (provider.IAM, error) {
		roleARN := fmt.Sprintf("arn:aws:iam::%s:role/%s", accountID, b.roleName)
		creds := stscreds.NewAssumeRoleProvider(stsClient, roleARN, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = fmt.Sprintf("iam-as-code-%s-%s", b.team, uuid.NewString()[:8])
		})
		scoped := cfg.Copy()
		scoped.Credentials = aws.NewCredentialsCache(creds)
		// Force the first credential exchange now so a role we cannot
		// assume fails the acquisition, not some later API call.
		if _, err := scoped.Credentials.Retrieve(ctx); err != nil {
			return nil, fmt.Errorf("assume role %s: %w", roleARN, err)
		}
		return NewClient(iam.NewFromConfig(scoped)), nil
	}
	return b
}

// Acquire returns a session scoped to the given account.
func (b *Broker) Acquire(ctx context.Context, accountID string) (provider.Session, error) {
	if client, ok := b.cache.Get(accountID); ok {
		return awsSession{client: client}, nil
	}
	client, err := b.mint(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("acquire session for account %s: %w", accountID, err)
	}
	b.cache.Add(accountID, client)
	return awsSession{client: client}, nil
}

// awsSession wraps a minted client. Close is a no-op for AWS: credentials
// expire server-side and the cache owns the client's lifetime.
type awsSession struct {
	client provider.IAM
}

func (s awsSession) IAM() provider.IAM { return s.client }
func (s awsSession) Close()            {}
