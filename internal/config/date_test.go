package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExpirationDate_Unmarshal(t *testing.T) {
	var doc struct {
		Expiration ExpirationDate `yaml:"expiration_date"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("expiration_date: 2026-09-01\n"), &doc))

	assert.True(t, doc.Expiration.Valid())
	assert.Equal(t, "2026-09-01", doc.Expiration.String())
	assert.Equal(t, 1, doc.Expiration.Line)
	assert.Equal(t, 18, doc.Expiration.Column)
}

func TestExpirationDate_UnmarshalMalformed(t *testing.T) {
	var doc struct {
		Expiration ExpirationDate `yaml:"expiration_date"`
	}
	// Not an error at parse time: the loader is lenient and the caller
	// decides whether to skip or fail.
	require.NoError(t, yaml.Unmarshal([]byte("expiration_date: next tuesday\n"), &doc))

	assert.False(t, doc.Expiration.Valid())
	assert.Equal(t, "next tuesday", doc.Expiration.Raw)
	assert.Equal(t, 1, doc.Expiration.Line)
}

func TestExpirationDate_ExpiredAt(t *testing.T) {
	date := Date(2026, time.September, 1)

	// Still active through the whole expiration day.
	assert.False(t, date.ExpiredAt(time.Date(2026, time.August, 31, 9, 0, 0, 0, time.UTC)))
	assert.False(t, date.ExpiredAt(time.Date(2026, time.September, 1, 23, 0, 0, 0, time.UTC)))
	assert.True(t, date.ExpiredAt(time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC)))
}

func TestExpirationDate_After(t *testing.T) {
	date := Date(2026, time.September, 7)

	assert.False(t, date.After(time.Date(2026, time.September, 7, 10, 0, 0, 0, time.UTC)))
	assert.True(t, date.After(time.Date(2026, time.September, 6, 10, 0, 0, 0, time.UTC)))
}

func TestExpirationDate_DaysUntil(t *testing.T) {
	date := Date(2026, time.September, 3)
	now := time.Date(2026, time.September, 1, 17, 30, 0, 0, time.UTC)

	assert.Equal(t, 2, date.DaysUntil(now))
	assert.Equal(t, -1, date.DaysUntil(time.Date(2026, time.September, 4, 1, 0, 0, 0, time.UTC)))
}

func TestExpirationDate_EndOfDayUTC(t *testing.T) {
	assert.Equal(t, "2026-09-01T23:59:59Z", Date(2026, time.September, 1).EndOfDayUTC())
}
