package projection

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/pickem/internal/stats"
)

type fakeSource struct {
	games []stats.GameLine
	err   error

	gotPlayerID int64
	gotBefore   time.Time
	gotLimit    int
}

func (f *fakeSource) RecentGames(_ context.Context, playerID int64, before time.Time, limit int) ([]stats.GameLine, error) {
	f.gotPlayerID = playerID
	f.gotBefore = before
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.games, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func gameOn(date string, points, assists float64) stats.GameLine {
	return stats.GameLine{
		GameDate: day(date),
		Stats: stats.Line{
			stats.Points:  points,
			stats.Assists: assists,
		},
	}
}

func TestComputeExpectedAveragesAllCategories(t *testing.T) {
	source := &fakeSource{games: []stats.GameLine{
		{GameDate: day("2024-01-04"), Stats: stats.Line{
			stats.Points: 30, stats.Assists: 6, stats.Rebounds: 10,
			stats.Steals: 2, stats.Blocks: 1, stats.Turnovers: 4, stats.PersonalFouls: 3,
		}},
		{GameDate: day("2024-01-02"), Stats: stats.Line{
			stats.Points: 20, stats.Assists: 4, stats.Rebounds: 6,
			stats.Steals: 0, stats.Blocks: 3, stats.Turnovers: 2, stats.PersonalFouls: 1,
		}},
	}}
	engine := NewEngine(source, testLogger())

	expected, err := engine.ComputeExpected(context.Background(), 2544, day("2024-01-05"))
	require.NoError(t, err)

	assert.Equal(t, 2, expected.NGamesUsed)
	assert.InDelta(t, 25.0, expected.ExpPoints, 1e-9)
	assert.InDelta(t, 5.0, expected.ExpAssists, 1e-9)
	assert.InDelta(t, 8.0, expected.ExpRebounds, 1e-9)
	assert.InDelta(t, 1.0, expected.ExpSteals, 1e-9)
	assert.InDelta(t, 2.0, expected.ExpBlocks, 1e-9)
	assert.InDelta(t, 3.0, expected.ExpTurnovers, 1e-9)
	assert.InDelta(t, 2.0, expected.ExpPersonalFouls, 1e-9)

	assert.Equal(t, int64(2544), source.gotPlayerID)
	assert.Equal(t, day("2024-01-05"), source.gotBefore)
	assert.Equal(t, LookbackGames, source.gotLimit)
}

func TestComputeExpectedZeroHistory(t *testing.T) {
	engine := NewEngine(&fakeSource{}, testLogger())

	expected, err := engine.ComputeExpected(context.Background(), 1628369, day("2024-01-05"))
	require.NoError(t, err)

	assert.Equal(t, 0, expected.NGamesUsed)
	for c, v := range expected.Line() {
		assert.Zerof(t, v, "category %s", c)
	}
}

func TestComputeExpectedExcludesLookAhead(t *testing.T) {
	// A game on the target date and one after it must never feed the average,
	// even though they are the most recent records.
	source := &fakeSource{games: []stats.GameLine{
		gameOn("2024-01-06", 50, 10),
		gameOn("2024-01-05", 40, 8),
		gameOn("2024-01-03", 10, 2),
		gameOn("2024-01-01", 20, 4),
	}}
	engine := NewEngine(source, testLogger())

	expected, err := engine.ComputeExpected(context.Background(), 201939, day("2024-01-05"))
	require.NoError(t, err)

	assert.Equal(t, 2, expected.NGamesUsed)
	assert.InDelta(t, 15.0, expected.ExpPoints, 1e-9)
	assert.InDelta(t, 3.0, expected.ExpAssists, 1e-9)
}

func TestComputeExpectedCapsAtLookback(t *testing.T) {
	games := []stats.GameLine{
		gameOn("2024-01-06", 10, 0),
		gameOn("2024-01-05", 20, 0),
		gameOn("2024-01-04", 30, 0),
		gameOn("2024-01-03", 40, 0),
		gameOn("2024-01-02", 50, 0),
		gameOn("2024-01-01", 100, 0),
	}
	engine := NewEngine(&fakeSource{games: games}, testLogger())

	expected, err := engine.ComputeExpected(context.Background(), 203999, day("2024-01-07"))
	require.NoError(t, err)

	assert.Equal(t, LookbackGames, expected.NGamesUsed)
	assert.InDelta(t, 30.0, expected.ExpPoints, 1e-9) // (10+20+30+40+50)/5
}

func TestComputeExpectedPropagatesSourceFailure(t *testing.T) {
	engine := NewEngine(&fakeSource{err: stats.ErrSourceUnavailable}, testLogger())

	expected, err := engine.ComputeExpected(context.Background(), 2544, day("2024-01-05"))

	assert.Nil(t, expected)
	assert.ErrorIs(t, err, stats.ErrSourceUnavailable)
}
