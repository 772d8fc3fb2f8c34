// Package providertest provides an in-memory identity backend and session
// broker for engine and provider tests.
package providertest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stclaird/cloud-iam-self-serve/internal/provider"
)

// Policy is the stored state of one managed policy in the fake backend.
type Policy struct {
	ARN         string
	Name        string
	Description string
	Versions    []provider.PolicyVersion
	Documents   map[string]string // version ID -> document
}

// DefaultDocument returns the document of the current default version.
func (p *Policy) DefaultDocument() string {
	for _, v := range p.Versions {
		if v.IsDefault {
			return p.Documents[v.ID]
		}
	}
	return ""
}

// Fake is an in-memory IAM backend. Mutating calls are recorded in order as
// "Op:key" strings, and FailOn injects an error for a single operation on a
// single resource, keyed the same way. Attach operations additionally match
// the "Op:principal/arn" form so one policy can fail while others succeed.
type Fake struct {
	AccountID string

	mu              sync.Mutex
	nextVersion     int
	clock           time.Time
	Policies        map[string]*Policy           // by ARN
	UserAttachments map[string][]string          // user -> policy ARNs
	RoleAttachments map[string][]string          // role -> policy ARNs
	InlinePolicies  map[string]map[string]string // user -> policy name -> document
	FailOn          map[string]error
	Mutations       []string
}

// NewFake returns an empty backend for the given account.
func NewFake(accountID string) *Fake {
	return &Fake{
		AccountID:       accountID,
		clock:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Policies:        make(map[string]*Policy),
		UserAttachments: make(map[string][]string),
		RoleAttachments: make(map[string][]string),
		InlinePolicies:  make(map[string]map[string]string),
		FailOn:          make(map[string]error),
	}
}

func (f *Fake) fail(op string, keys ...string) error {
	for _, key := range keys {
		if err := f.FailOn[op+":"+key]; err != nil {
			return err
		}
	}
	return nil
}

func (f *Fake) record(op, key string) {
	f.Mutations = append(f.Mutations, op+":"+key)
}

// tick returns a strictly increasing timestamp so version creation order is
// observable.
func (f *Fake) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *Fake) LookupPolicy(ctx context.Context, arn string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("LookupPolicy", arn); err != nil {
		return false, err
	}
	_, ok := f.Policies[arn]
	return ok, nil
}

func (f *Fake) CreatePolicy(ctx context.Context, name, description, document string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreatePolicy", name); err != nil {
		return "", err
	}
	arn := fmt.Sprintf("arn:aws:iam::%s:policy/%s", f.AccountID, name)
	if _, ok := f.Policies[arn]; ok {
		return "", fmt.Errorf("policy %s already exists", name)
	}
	f.record("CreatePolicy", name)
	versionID := f.newVersionID()
	f.Policies[arn] = &Policy{
		ARN:         arn,
		Name:        name,
		Description: description,
		Versions: []provider.PolicyVersion{
			{ID: versionID, CreatedAt: f.tick(), IsDefault: true},
		},
		Documents: map[string]string{versionID: document},
	}
	return arn, nil
}

func (f *Fake) CreatePolicyVersion(ctx context.Context, arn, document string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreatePolicyVersion", arn); err != nil {
		return err
	}
	p, ok := f.Policies[arn]
	if !ok {
		return fmt.Errorf("policy %s not found", arn)
	}
	f.record("CreatePolicyVersion", arn)
	for i := range p.Versions {
		p.Versions[i].IsDefault = false
	}
	versionID := f.newVersionID()
	p.Versions = append(p.Versions, provider.PolicyVersion{
		ID: versionID, CreatedAt: f.tick(), IsDefault: true,
	})
	p.Documents[versionID] = document
	return nil
}

func (f *Fake) ListPolicyVersions(ctx context.Context, arn string) ([]provider.PolicyVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListPolicyVersions", arn); err != nil {
		return nil, err
	}
	p, ok := f.Policies[arn]
	if !ok {
		return nil, fmt.Errorf("policy %s not found", arn)
	}
	out := make([]provider.PolicyVersion, len(p.Versions))
	copy(out, p.Versions)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *Fake) DeletePolicyVersion(ctx context.Context, arn, versionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeletePolicyVersion", arn); err != nil {
		return err
	}
	p, ok := f.Policies[arn]
	if !ok {
		return fmt.Errorf("policy %s not found", arn)
	}
	for i, v := range p.Versions {
		if v.ID != versionID {
			continue
		}
		if v.IsDefault {
			return fmt.Errorf("cannot delete default version %s of %s", versionID, arn)
		}
		f.record("DeletePolicyVersion", arn+"/"+versionID)
		p.Versions = append(p.Versions[:i], p.Versions[i+1:]...)
		delete(p.Documents, versionID)
		return nil
	}
	return fmt.Errorf("version %s of %s not found", versionID, arn)
}

func (f *Fake) AttachUserPolicy(ctx context.Context, user, arn string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("AttachUserPolicy", user, user+"/"+arn); err != nil {
		return err
	}
	f.record("AttachUserPolicy", user+"/"+arn)
	if !contains(f.UserAttachments[user], arn) {
		f.UserAttachments[user] = append(f.UserAttachments[user], arn)
	}
	return nil
}

func (f *Fake) AttachRolePolicy(ctx context.Context, role, arn string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("AttachRolePolicy", role, role+"/"+arn); err != nil {
		return err
	}
	f.record("AttachRolePolicy", role+"/"+arn)
	if !contains(f.RoleAttachments[role], arn) {
		f.RoleAttachments[role] = append(f.RoleAttachments[role], arn)
	}
	return nil
}

func (f *Fake) PutUserPolicy(ctx context.Context, user, policyName, document string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("PutUserPolicy", user); err != nil {
		return err
	}
	f.record("PutUserPolicy", user+"/"+policyName)
	if f.InlinePolicies[user] == nil {
		f.InlinePolicies[user] = make(map[string]string)
	}
	f.InlinePolicies[user][policyName] = document
	return nil
}

func (f *Fake) DeleteUserPolicy(ctx context.Context, user, policyName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteUserPolicy", user); err != nil {
		return err
	}
	if _, ok := f.InlinePolicies[user][policyName]; !ok {
		// Absence is success per the provider contract.
		return nil
	}
	f.record("DeleteUserPolicy", user+"/"+policyName)
	delete(f.InlinePolicies[user], policyName)
	return nil
}

func (f *Fake) newVersionID() string {
	f.nextVersion++
	return fmt.Sprintf("v%d", f.nextVersion)
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// Broker hands out sessions backed by per-account fakes and counts
// acquire/release pairs so tests can assert scoped usage.
type Broker struct {
	mu         sync.Mutex
	Fakes      map[string]*Fake
	AcquireErr map[string]error
	Acquired   int
	Released   int
}

// NewBroker creates a broker with one fake per account ID.
func NewBroker(accountIDs ...string) *Broker {
	b := &Broker{
		Fakes:      make(map[string]*Fake),
		AcquireErr: make(map[string]error),
	}
	for _, id := range accountIDs {
		b.Fakes[id] = NewFake(id)
	}
	return b
}

func (b *Broker) Acquire(ctx context.Context, accountID string) (provider.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.AcquireErr[accountID]; err != nil {
		return nil, err
	}
	f, ok := b.Fakes[accountID]
	if !ok {
		return nil, fmt.Errorf("no fake for account %s", accountID)
	}
	b.Acquired++
	return &session{fake: f, broker: b}, nil
}

// Mutations returns every recorded mutating call across all accounts.
func (b *Broker) Mutations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var all []string
	for _, f := range b.Fakes {
		all = append(all, f.Mutations...)
	}
	return all
}

type session struct {
	fake   *Fake
	broker *Broker
}

func (s *session) IAM() provider.IAM { return s.fake }

func (s *session) Close() {
	s.broker.mu.Lock()
	s.broker.Released++
	s.broker.mu.Unlock()
}
