// Package engine turns a team's declarative IAM configuration into a
// converged remote state: policies first, then standing grants, then
// time-boxed grants, plus a separate cleanup pass for expired grants.
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/pterm/pterm"

	"github.com/stclaird/cloud-iam-self-serve/internal/config"
	"github.com/stclaird/cloud-iam-self-serve/internal/provider"
)

// PolicyRef is what the policy phase hands to the grant phases for one
// (environment, policy key) pair: the custom policy's ARN (empty for a
// managed-only definition) plus any managed-policy references.
type PolicyRef struct {
	ARN     string
	Managed []string
}

type refKey struct {
	env string
	key string
}

// Engine reconciles one team's configuration. It never mutates the
// configuration, only remote account state, and holds no state between
// runs.
type Engine struct {
	cfg    *config.TeamConfig
	broker provider.Broker
	logger *pterm.Logger
	dryRun bool
	now    func() time.Time

	lifecycle *PolicyLifecycle
	attacher  *GrantAttacher
	temporary *TemporaryAccess
}

// Option configures an Engine.
type Option func(*Engine)

// WithDryRun replaces every mutating provider call with a logged intent.
// Reads still happen, so the run produces realistic output.
func WithDryRun() Option {
	return func(e *Engine) { e.dryRun = true }
}

// WithLogger routes engine logging through the given logger.
func WithLogger(logger *pterm.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the engine's notion of now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine over a loaded team configuration and a session
// broker.
func New(cfg *config.TeamConfig, broker provider.Broker, opts ...Option) *Engine {
	defaultLogger := pterm.DefaultLogger
	e := &Engine{
		cfg:    cfg,
		broker: broker,
		logger: &defaultLogger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.lifecycle = &PolicyLifecycle{team: cfg.Team, logger: e.logger}
	e.attacher = &GrantAttacher{logger: e.logger}
	e.temporary = &TemporaryAccess{
		team:     cfg.Team,
		catalog:  cfg.Policies,
		attacher: e.attacher,
		logger:   e.logger,
	}
	return e
}

// Apply runs the three reconciliation phases in order. Every unit of work
// is attempted once; a failing unit is logged and skipped without aborting
// its siblings.
func (e *Engine) Apply(ctx context.Context) *ApplyReport {
	report := &ApplyReport{}
	refs := e.convergePolicies(ctx, report)
	e.applyPermanent(ctx, refs, report)
	e.applyTemporary(ctx, report)
	return report
}

// Phase 1: converge every policy definition into every account.
func (e *Engine) convergePolicies(ctx context.Context, report *ApplyReport) map[refKey]PolicyRef {
	refs := make(map[refKey]PolicyRef)
	for _, key := range sortedKeys(e.cfg.Policies) {
		def := e.cfg.Policies[key]
		e.logger.Info("processing policy", e.logger.Args("policy", key))
		for _, env := range sortedKeys(e.cfg.Accounts) {
			accountID := e.cfg.Accounts[env]
			var ref *PolicyRef
			ok := e.attempt("converge policy", e.logger.Args("policy", key, "environment", env), func() error {
				return e.withSession(ctx, accountID, func(iamc provider.IAM) error {
					var err error
					ref, err = e.lifecycle.Converge(ctx, iamc, accountID, key, def)
					return err
				})
			})
			switch {
			case !ok:
				report.Failed++
			case ref == nil:
				report.Skipped++
			default:
				refs[refKey{env: env, key: key}] = *ref
				report.PoliciesConverged++
			}
		}
	}
	return refs
}

// Phase 2: attach converged policies to standing users and roles.
func (e *Engine) applyPermanent(ctx context.Context, refs map[refKey]PolicyRef, report *ApplyReport) {
	for _, grant := range e.cfg.Permanent {
		e.logger.Info("applying permanent grant", e.logger.Args("description", grant.Description))
		for _, env := range grant.Environments {
			accountID, ok := e.cfg.Accounts[env]
			if !ok {
				e.logger.Warn("environment not found in accounts", e.logger.Args("environment", env))
				report.Skipped++
				continue
			}
			for _, key := range grant.Grants {
				ref, ok := refs[refKey{env: env, key: key}]
				if !ok {
					e.logger.Warn("policy not converged for environment", e.logger.Args("policy", key, "environment", env))
					report.Skipped++
					continue
				}
				for _, user := range grant.Users {
					e.attachOne(ctx, accountID, user, ref, false, report)
				}
				for _, role := range grant.Roles {
					e.attachOne(ctx, accountID, role, ref, true, report)
				}
			}
		}
	}
}

// attachOne attaches one policy reference to one principal. The custom
// attach and the managed attaches are independent units: a failing custom
// attach does not stop the managed policies from being attempted.
func (e *Engine) attachOne(ctx context.Context, accountID, principal string, ref PolicyRef, isRole bool, report *ApplyReport) {
	if ref.ARN != "" {
		ok := e.attempt("attach policy", e.logger.Args("principal", principal, "account", accountID), func() error {
			return e.withSession(ctx, accountID, func(iamc provider.IAM) error {
				return e.attacher.Attach(ctx, iamc, principal, ref.ARN, isRole)
			})
		})
		if ok {
			report.Attached++
		} else {
			report.Failed++
		}
	}
	if len(ref.Managed) == 0 {
		return
	}
	ok := e.attempt("attach managed policies", e.logger.Args("principal", principal, "account", accountID), func() error {
		return e.withSession(ctx, accountID, func(iamc provider.IAM) error {
			report.Attached += e.attacher.AttachManaged(ctx, iamc, principal, ref.Managed, isRole)
			return nil
		})
	})
	if !ok {
		report.Failed++
	}
}

// Phase 3: install still-active temporary grants.
func (e *Engine) applyTemporary(ctx context.Context, report *ApplyReport) {
	now := e.now()
	for _, grant := range e.cfg.Temporary {
		if !grant.Expiration.Valid() {
			e.logger.Warn("temporary grant has malformed expiration date, skipping",
				e.logger.Args("description", grant.Description, "value", grant.Expiration.Raw))
			report.Skipped++
			continue
		}
		if grant.Expiration.ExpiredAt(now) {
			e.logger.Info("skipping expired temporary grant",
				e.logger.Args("description", grant.Description, "expired", grant.Expiration.String()))
			report.SkippedExpired++
			continue
		}
		accountID, ok := e.cfg.Accounts[grant.Environment]
		if !ok {
			e.logger.Warn("environment not found in accounts", e.logger.Args("environment", grant.Environment))
			report.Skipped++
			continue
		}
		e.logger.Info("applying temporary grant",
			e.logger.Args("description", grant.Description, "expires", grant.Expiration.String()))
		var granted bool
		ok = e.attempt("grant temporary access", e.logger.Args("user", grant.User, "grant", grant.Grant), func() error {
			return e.withSession(ctx, accountID, func(iamc provider.IAM) error {
				var err error
				granted, err = e.temporary.Grant(ctx, iamc, grant.User, grant.Grant, grant.Expiration)
				return err
			})
		})
		switch {
		case !ok:
			report.Failed++
		case granted:
			report.TemporaryGranted++
		default:
			report.Skipped++
		}
	}
}

// Cleanup partitions the temporary-grant list into expired and active,
// revokes every expired grant, and reports the counts. Policies and
// permanent grants are never touched here.
func (e *Engine) Cleanup(ctx context.Context) *CleanupReport {
	report := &CleanupReport{}
	now := e.now()
	for _, grant := range e.cfg.Temporary {
		if !grant.Expiration.Valid() {
			e.logger.Warn("temporary grant has malformed expiration date, skipping",
				e.logger.Args("description", grant.Description, "value", grant.Expiration.Raw))
			continue
		}
		if !grant.Expiration.ExpiredAt(now) {
			report.Active++
			e.logger.Info("active temporary grant", e.logger.Args(
				"description", grant.Description,
				"user", grant.User,
				"environment", grant.Environment,
				"expires", grant.Expiration.String(),
				"days_remaining", grant.Expiration.DaysUntil(now)))
			continue
		}
		report.Expired++
		e.logger.Info("expired temporary grant", e.logger.Args(
			"description", grant.Description,
			"user", grant.User,
			"environment", grant.Environment,
			"grant", grant.Grant,
			"expired", grant.Expiration.String()))
		accountID, ok := e.cfg.Accounts[grant.Environment]
		if !ok {
			e.logger.Warn("environment not found in accounts", e.logger.Args("environment", grant.Environment))
			report.Failed++
			continue
		}
		ok = e.attempt("revoke temporary access", e.logger.Args("user", grant.User, "grant", grant.Grant), func() error {
			return e.withSession(ctx, accountID, func(iamc provider.IAM) error {
				return e.temporary.Revoke(ctx, iamc, grant.User, grant.Grant)
			})
		})
		if !ok {
			report.Failed++
		}
	}
	return report
}

// withSession acquires a scoped session for one unit of work and guarantees
// its release. In dry-run mode the handle is wrapped so mutating calls
// become logged intents.
func (e *Engine) withSession(ctx context.Context, accountID string, fn func(provider.IAM) error) error {
	session, err := e.broker.Acquire(ctx, accountID)
	if err != nil {
		return err
	}
	defer session.Close()
	iamc := session.IAM()
	if e.dryRun {
		iamc = provider.NewDryRun(iamc, e.logger)
	}
	return fn(iamc)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
