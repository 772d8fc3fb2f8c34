// Package validate implements the static pre-merge check on temporary-grant
// expiration dates. It is pure: no provider access, no side effects.
package validate

import (
	"time"

	"github.com/stclaird/cloud-iam-self-serve/internal/config"
)

// MaxLeadDays is the policy ceiling on how far in advance elevated access
// may be scheduled.
const MaxLeadDays = 6

// Kind classifies a violation.
type Kind int

const (
	// TooFarAhead means the expiration date lies beyond the allowed
	// lead-time window.
	TooFarAhead Kind = iota
	// MalformedDate means the expiration value is not a well-formed
	// calendar date. Treated as a hard validation failure, not a skip.
	MalformedDate
)

// Violation describes one temporary grant that fails validation, with
// enough positional context to render a source-level diagnostic.
type Violation struct {
	Kind        Kind
	Description string
	User        string
	Value       string
	Line        int
	Column      int
}

// Window returns the latest allowed expiration date for a run at now.
func Window(now time.Time) config.ExpirationDate {
	return config.DateOf(now.AddDate(0, 0, MaxLeadDays))
}

// Expirations checks every grant's expiration date against the lead-time
// window. A violation is reported iff the date is more than MaxLeadDays
// past today's date; malformed values always yield a report entry.
func Expirations(grants []config.TemporaryGrant, now time.Time) []Violation {
	var violations []Violation
	for _, grant := range grants {
		exp := grant.Expiration
		if !exp.Valid() {
			violations = append(violations, Violation{
				Kind:        MalformedDate,
				Description: grant.Description,
				User:        grant.User,
				Value:       exp.Raw,
				Line:        exp.Line,
				Column:      exp.Column,
			})
			continue
		}
		if exp.After(Window(now).Time()) {
			violations = append(violations, Violation{
				Kind:        TooFarAhead,
				Description: grant.Description,
				User:        grant.User,
				Value:       exp.String(),
				Line:        exp.Line,
				Column:      exp.Column,
			})
		}
	}
	return violations
}
