package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/pickem/internal/stats"
)

func newTestESPNClient(t *testing.T, handler http.HandlerFunc) *ESPNClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewESPNClient(2*time.Second, 5, testLogger())
	c.baseURL = srv.URL
	return c
}

const scoreboardFixture = `{
  "events": [
    {
      "id": "401585601",
      "date": "2024-01-15T19:30Z",
      "competitions": [
        {
          "competitors": [
            {"homeAway": "home", "team": {"id": "7", "abbreviation": "DEN", "displayName": "Denver Nuggets"}},
            {"homeAway": "away", "team": {"id": "21", "abbreviation": "PHX", "displayName": "Phoenix Suns"}}
          ]
        }
      ]
    },
    {
      "id": "",
      "date": "2024-01-15T21:00Z",
      "competitions": []
    }
  ]
}`

func TestScoreboardParsesEvents(t *testing.T) {
	client := newTestESPNClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scoreboard", r.URL.Path)
		assert.Equal(t, "20240115", r.URL.Query().Get("dates"))
		_, _ = w.Write([]byte(scoreboardFixture))
	})

	games, err := client.Scoreboard(context.Background(), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, games, 1) // the malformed second event is dropped

	game := games[0]
	assert.Equal(t, "401585601", game.GameID)
	assert.Equal(t, "DEN", game.HomeTeam)
	assert.Equal(t, "7", game.HomeTeamID)
	assert.Equal(t, "PHX", game.AwayTeam)
	assert.Equal(t, "21", game.AwayTeamID)
	assert.Equal(t, "2024-01-15T19:30Z", game.StartTime)
}

func TestScoreboardUpstreamFailure(t *testing.T) {
	client := newTestESPNClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Scoreboard(context.Background(), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, stats.ErrSourceUnavailable)
}

const rosterFixture = `{
  "team": {"displayName": "Denver Nuggets", "abbreviation": "DEN"},
  "athletes": [
    {
      "position": "centers",
      "items": [
        {"id": "3112335", "fullName": "Nikola Jokic", "jersey": "15", "position": {"abbreviation": "C"}}
      ]
    },
    {
      "position": "guards",
      "items": [
        {"id": "4065663", "fullName": "Jamal Murray", "jersey": "27", "position": {"abbreviation": "PG"}},
        {"id": "", "fullName": "", "displayName": "", "jersey": ""}
      ]
    }
  ]
}`

func TestRosterFlattensPositionGroups(t *testing.T) {
	client := newTestESPNClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/teams/7/roster", r.URL.Path)
		_, _ = w.Write([]byte(rosterFixture))
	})

	roster, err := client.Roster(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "7", roster.TeamID)
	assert.Equal(t, "Denver Nuggets", roster.TeamName)
	assert.Equal(t, "DEN", roster.TeamAbbr)

	require.Len(t, roster.Players, 2) // nameless athlete dropped
	assert.Equal(t, "3112335", roster.Players[0].AthleteID)
	assert.Equal(t, "Nikola Jokic", roster.Players[0].FullName)
	assert.Equal(t, "C", roster.Players[0].Position)
	assert.Equal(t, "Jamal Murray", roster.Players[1].FullName)
}

func TestRosterUpstreamFailure(t *testing.T) {
	client := newTestESPNClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Roster(context.Background(), "7")
	require.Error(t, err)
	assert.ErrorIs(t, err, stats.ErrSourceUnavailable)
}
