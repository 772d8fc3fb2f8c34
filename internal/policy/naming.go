// Package policy models provider policy documents and the deterministic
// naming scheme that ties declared intent to remote resources.
package policy

import (
	"fmt"
	"strings"
)

// PrincipalName reduces a user-style identity to its short identity handle:
// the part of an email-shaped string before the "@". Role names pass through
// untouched elsewhere; this applies only to users. The same reduction must
// be used wherever a user is attached or later addressed for removal.
func PrincipalName(identity string) string {
	if i := strings.Index(identity, "@"); i >= 0 {
		return identity[:i]
	}
	return identity
}

// Name derives the account-level policy name for a team policy key. Dots
// are replaced so the name stays provider-identifier-safe.
func Name(team, key string) string {
	return sanitize(team + "-" + key)
}

// TempName derives the inline policy name carrying a temporary grant. The
// (team, grant, user) triple uniquely determines the name, so re-granting
// overwrites rather than duplicates.
func TempName(team, grant, user string) string {
	return sanitize("temp-" + team + "-" + grant + "-" + PrincipalName(user))
}

// ARN returns the deterministic ARN a team policy will have in an account,
// usable before the policy exists.
func ARN(accountID, name string) string {
	return fmt.Sprintf("arn:aws:iam::%s:policy/%s", accountID, name)
}

func sanitize(name string) string {
	return strings.ReplaceAll(name, ".", "-")
}
