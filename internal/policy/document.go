package policy

import (
	"encoding/json"
	"fmt"

	"github.com/stclaird/cloud-iam-self-serve/internal/config"
)

// DocumentVersion is the provider policy language version.
const DocumentVersion = "2012-10-17"

// currentTimeKey is the condition key the provider evaluates time-bound
// statements against.
const currentTimeKey = "aws:CurrentTime"

// Document is a provider policy document.
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement is one rendered allow/deny statement, optionally time-bound.
type Statement struct {
	Effect    string     `json:"Effect"`
	Action    []string   `json:"Action"`
	Resource  []string   `json:"Resource"`
	Condition *Condition `json:"Condition,omitempty"`
}

// Condition carries the time bound injected into temporary grants.
type Condition struct {
	DateLessThan map[string]string `json:"DateLessThan,omitempty"`
}

// NewDocument renders configured statements into a policy document. ok is
// false when there are no statements to render; callers must not attempt to
// install an empty document.
func NewDocument(statements []config.Statement) (Document, bool) {
	if len(statements) == 0 {
		return Document{}, false
	}
	doc := Document{Version: DocumentVersion}
	for _, stmt := range statements {
		doc.Statement = append(doc.Statement, Statement{
			Effect:   stmt.Effect,
			Action:   stmt.Actions,
			Resource: stmt.Resources,
		})
	}
	return doc, true
}

// NewExpiringDocument renders configured statements with a condition bound
// to the expiration date: access holds through the entire expiration day
// (until 23:59:59 UTC), not up to its midnight.
func NewExpiringDocument(statements []config.Statement, expiry config.ExpirationDate) (Document, bool) {
	doc, ok := NewDocument(statements)
	if !ok {
		return doc, false
	}
	for i := range doc.Statement {
		doc.Statement[i].Condition = &Condition{
			DateLessThan: map[string]string{currentTimeKey: expiry.EndOfDayUTC()},
		}
	}
	return doc, true
}

// JSON renders the document in the provider wire form.
func (d Document) JSON() (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal policy document: %w", err)
	}
	return string(raw), nil
}
