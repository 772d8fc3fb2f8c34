package policy

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stclaird/cloud-iam-self-serve/internal/config"
)

var readStatements = []config.Statement{
	{
		Effect:    "Allow",
		Actions:   []string{"s3:GetObject"},
		Resources: []string{"arn:aws:s3:::team-bucket/*"},
	},
}

func TestNewDocument(t *testing.T) {
	doc, ok := NewDocument(readStatements)
	require.True(t, ok)
	assert.Equal(t, DocumentVersion, doc.Version)
	require.Len(t, doc.Statement, 1)
	assert.Equal(t, "Allow", doc.Statement[0].Effect)
	assert.Nil(t, doc.Statement[0].Condition)
}

func TestNewDocument_NoStatements(t *testing.T) {
	_, ok := NewDocument(nil)
	assert.False(t, ok)
}

func TestDocumentJSON_WireShape(t *testing.T) {
	doc, ok := NewDocument(readStatements)
	require.True(t, ok)
	body, err := doc.JSON()
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &wire))
	assert.Equal(t, "2012-10-17", wire["Version"])

	statements := wire["Statement"].([]any)
	stmt := statements[0].(map[string]any)
	assert.Equal(t, "Allow", stmt["Effect"])
	assert.Equal(t, []any{"s3:GetObject"}, stmt["Action"])
	assert.Equal(t, []any{"arn:aws:s3:::team-bucket/*"}, stmt["Resource"])
	assert.NotContains(t, stmt, "Condition")
}

func TestNewExpiringDocument_BindsEndOfExpirationDay(t *testing.T) {
	expiry := config.Date(2026, time.September, 1)
	doc, ok := NewExpiringDocument(readStatements, expiry)
	require.True(t, ok)
	require.Len(t, doc.Statement, 1)

	cond := doc.Statement[0].Condition
	require.NotNil(t, cond)
	bound := cond.DateLessThan["aws:CurrentTime"]
	assert.Equal(t, "2026-09-01T23:59:59Z", bound)

	// Access must hold at noon of the expiration day and lapse strictly
	// after its last second.
	limit, err := time.Parse(time.RFC3339, bound)
	require.NoError(t, err)
	noon := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, noon.Before(limit))
	afterMidnight := time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC)
	assert.False(t, afterMidnight.Before(limit))
}

func TestNewExpiringDocument_NoStatements(t *testing.T) {
	_, ok := NewExpiringDocument(nil, config.Date(2026, time.September, 1))
	assert.False(t, ok)
}
