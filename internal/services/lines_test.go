package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/pickem/internal/providers"
	"github.com/courtside/pickem/internal/stats"
)

type fakeSportsbook struct {
	result *providers.LineResult
	err    error
	calls  int
}

func (f *fakeSportsbook) Name() string { return "fakebook" }

func (f *fakeSportsbook) PlayerLines(context.Context, int64, string, time.Time) (*providers.LineResult, error) {
	f.calls++
	return f.result, f.err
}

func TestPlayerLinesFetchesAndCaches(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()
	book := &fakeSportsbook{result: &providers.LineResult{
		Provider:    "fakebook",
		LastUpdated: now,
		Lines:       stats.Line{stats.Points: 25.5, stats.Assists: 8.5},
	}}
	svc := NewLinesService(db, book, 30*time.Minute, testLogger())
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	result := svc.PlayerLines(context.Background(), 203999, "Nikola Jokic", date)
	require.NotNil(t, result)
	assert.Equal(t, 25.5, result.Lines.Get(stats.Points))
	assert.Equal(t, 1, book.calls)

	// Served from the cached row within the TTL.
	result = svc.PlayerLines(context.Background(), 203999, "Nikola Jokic", date)
	require.NotNil(t, result)
	assert.Equal(t, 25.5, result.Lines.Get(stats.Points))
	assert.Equal(t, 8.5, result.Lines.Get(stats.Assists))
	assert.Equal(t, 1, book.calls)
}

func TestPlayerLinesProviderFailureDegradesToNil(t *testing.T) {
	db := testDB(t)
	book := &fakeSportsbook{err: stats.ErrSourceUnavailable}
	svc := NewLinesService(db, book, 30*time.Minute, testLogger())

	// Lines are optional context: a dead provider yields nil, not an error.
	result := svc.PlayerLines(context.Background(), 203999, "Nikola Jokic", time.Now())
	assert.Nil(t, result)
}

func TestPlayerLinesProviderFailureServesStaleRow(t *testing.T) {
	db := testDB(t)
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	healthy := &fakeSportsbook{result: &providers.LineResult{
		Provider:    "fakebook",
		LastUpdated: time.Now().UTC().Add(-2 * time.Hour), // already past the TTL
		Lines:       stats.Line{stats.Points: 25.5},
	}}
	svc := NewLinesService(db, healthy, 30*time.Minute, testLogger())
	require.NotNil(t, svc.PlayerLines(context.Background(), 203999, "Nikola Jokic", date))

	broken := &fakeSportsbook{err: stats.ErrSourceUnavailable}
	svc = NewLinesService(db, broken, 30*time.Minute, testLogger())

	result := svc.PlayerLines(context.Background(), 203999, "Nikola Jokic", date)
	require.NotNil(t, result)
	assert.Equal(t, 25.5, result.Lines.Get(stats.Points))
	assert.Equal(t, 1, broken.calls)
}

func TestPlayerLinesDisabled(t *testing.T) {
	svc := NewLinesService(testDB(t), nil, 30*time.Minute, testLogger())
	assert.False(t, svc.Enabled())
	assert.Nil(t, svc.PlayerLines(context.Background(), 203999, "Nikola Jokic", time.Now()))
}
