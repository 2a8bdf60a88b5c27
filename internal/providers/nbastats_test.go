package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/pickem/internal/stats"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestNBAClient(t *testing.T, handler http.HandlerFunc) *NBAStatsClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewNBAStatsClient(2*time.Second, 100, 5, testLogger())
	c.baseURL = srv.URL
	return c
}

// gamelogRow builds a PlayerGameLog row with the stat columns populated.
func gamelogRow(date string, reb, ast, stl, blk, tov, pf, pts float64) []interface{} {
	row := make([]interface{}, 27)
	for i := range row {
		row[i] = 0.0
	}
	row[glIdxGameDate] = date
	row[glIdxRebounds] = reb
	row[glIdxAssists] = ast
	row[glIdxSteals] = stl
	row[glIdxBlocks] = blk
	row[glIdxTurnovers] = tov
	row[glIdxFouls] = pf
	row[glIdxPoints] = pts
	return row
}

// boxScoreRow builds a BoxScoreTraditionalV2 PlayerStats row.
func boxScoreRow(playerID float64, name, team, minutes string, reb, ast, stl, blk, tov, pf, pts float64) []interface{} {
	row := make([]interface{}, 29)
	for i := range row {
		row[i] = 0.0
	}
	row[bsIdxPlayerID] = playerID
	row[bsIdxPlayerName] = name
	row[bsIdxTeamAbbr] = team
	row[bsIdxMinutes] = minutes
	row[bsIdxRebounds] = reb
	row[bsIdxAssists] = ast
	row[bsIdxSteals] = stl
	row[bsIdxBlocks] = blk
	row[bsIdxTurnovers] = tov
	row[bsIdxFouls] = pf
	row[bsIdxPoints] = pts
	return row
}

func writeResultSets(w http.ResponseWriter, sets ...map[string]interface{}) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"resultSets": sets})
}

func TestRecentGamesExcludesBoundAndLater(t *testing.T) {
	client := newTestNBAClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/playergamelog", r.URL.Path)
		assert.Equal(t, "203999", r.URL.Query().Get("PlayerID"))
		assert.Equal(t, "01/15/2024", r.URL.Query().Get("DateTo"))
		writeResultSets(w, map[string]interface{}{
			"name": "PlayerGameLog",
			"rowSet": [][]interface{}{
				// DateTo is inclusive upstream; the client must drop this row.
				gamelogRow("Jan 15, 2024", 10, 8, 1, 1, 3, 2, 30),
				gamelogRow("Jan 13, 2024", 12, 9, 2, 1, 4, 3, 26),
				gamelogRow("Jan 11, 2024", 11, 7, 1, 0, 2, 2, 22),
			},
		})
	})

	before := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	games, err := client.RecentGames(context.Background(), 203999, before, 5)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC), games[0].GameDate)
	assert.Equal(t, 26.0, games[0].Stats.Get(stats.Points))
	assert.Equal(t, 9.0, games[0].Stats.Get(stats.Assists))
	assert.Equal(t, 12.0, games[0].Stats.Get(stats.Rebounds))
	assert.Equal(t, 3.0, games[0].Stats.Get(stats.PersonalFouls))
	assert.Equal(t, 22.0, games[1].Stats.Get(stats.Points))
}

func TestRecentGamesStopsAtLimit(t *testing.T) {
	rows := make([][]interface{}, 0, 8)
	for day := 14; day > 6; day-- {
		rows = append(rows, gamelogRow(time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC).Format("Jan 02, 2006"), 5, 5, 1, 1, 2, 2, 20))
	}
	client := newTestNBAClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeResultSets(w, map[string]interface{}{"name": "PlayerGameLog", "rowSet": rows})
	})

	before := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	games, err := client.RecentGames(context.Background(), 203999, before, 5)
	require.NoError(t, err)
	assert.Len(t, games, 5)
}

func TestRecentGamesUpstreamFailure(t *testing.T) {
	client := newTestNBAClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.RecentGames(context.Background(), 203999, time.Now(), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, stats.ErrSourceUnavailable)
}

func TestBoxScoreFindsPlayer(t *testing.T) {
	client := newTestNBAClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/boxscoretraditionalv2", r.URL.Path)
		assert.Equal(t, "0022300555", r.URL.Query().Get("GameID"))
		writeResultSets(w,
			map[string]interface{}{"name": "GameSummary", "rowSet": [][]interface{}{}},
			map[string]interface{}{
				"name": "PlayerStats",
				"rowSet": [][]interface{}{
					boxScoreRow(201142, "Kevin Durant", "PHX", "36:05", 6, 5, 0, 1, 2, 1, 28),
					boxScoreRow(203999, "Nikola Jokic", "DEN", "34:12", 12, 9, 1, 1, 3, 2, 26),
				},
			})
	})

	box, err := client.BoxScore(context.Background(), "0022300555", 203999)
	require.NoError(t, err)
	require.NotNil(t, box)
	assert.Equal(t, "34:12", box.Minutes)
	assert.Equal(t, 26.0, box.Stats.Get(stats.Points))
	assert.Equal(t, 9.0, box.Stats.Get(stats.Assists))
	assert.Equal(t, 1.0, box.Stats.Get(stats.Blocks))
}

func TestBoxScorePlayerAbsent(t *testing.T) {
	client := newTestNBAClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeResultSets(w, map[string]interface{}{
			"name":   "PlayerStats",
			"rowSet": [][]interface{}{boxScoreRow(201142, "Kevin Durant", "PHX", "36:05", 6, 5, 0, 1, 2, 1, 28)},
		})
	})

	// Absent is not an error: the player just did not play.
	box, err := client.BoxScore(context.Background(), "0022300555", 203999)
	require.NoError(t, err)
	assert.Nil(t, box)
}

func TestBoxScoreMissingPlayerStats(t *testing.T) {
	client := newTestNBAClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeResultSets(w, map[string]interface{}{"name": "GameSummary", "rowSet": [][]interface{}{}})
	})

	_, err := client.BoxScore(context.Background(), "0022300555", 203999)
	require.Error(t, err)
	assert.ErrorIs(t, err, stats.ErrSourceUnavailable)
}

func TestPlayersForGame(t *testing.T) {
	client := newTestNBAClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeResultSets(w, map[string]interface{}{
			"name": "PlayerStats",
			"rowSet": [][]interface{}{
				boxScoreRow(203999, "Nikola Jokic", "DEN", "34:12", 12, 9, 1, 1, 3, 2, 26),
				boxScoreRow(201142, "Kevin Durant", "PHX", "36:05", 6, 5, 0, 1, 2, 1, 28),
			},
		})
	})

	players, err := client.PlayersForGame(context.Background(), "0022300555")
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, int64(203999), players[0].PlayerID)
	assert.Equal(t, "Nikola Jokic", players[0].PlayerName)
	assert.Equal(t, "DEN", players[0].Team)
	assert.Equal(t, "0022300555", players[0].GameID)
}

func TestPlayerName(t *testing.T) {
	client := newTestNBAClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/commonplayerinfo", r.URL.Path)
		assert.Equal(t, "203999", r.URL.Query().Get("PlayerID"))
		writeResultSets(w, map[string]interface{}{
			"name":    "CommonPlayerInfo",
			"headers": []string{"PERSON_ID", "FIRST_NAME", "LAST_NAME", "DISPLAY_FIRST_LAST"},
			"rowSet":  [][]interface{}{{203999.0, "Nikola", "Jokic", "Nikola Jokic"}},
		})
	})

	name, err := client.PlayerName(context.Background(), 203999)
	require.NoError(t, err)
	assert.Equal(t, "Nikola Jokic", name)
}

func TestPlayerNameMissing(t *testing.T) {
	client := newTestNBAClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeResultSets(w, map[string]interface{}{
			"name":    "CommonPlayerInfo",
			"headers": []string{"PERSON_ID"},
			"rowSet":  [][]interface{}{{99.0}},
		})
	})

	_, err := client.PlayerName(context.Background(), 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, stats.ErrSourceUnavailable)
}

func TestSeasonFor(t *testing.T) {
	cases := map[time.Time]string{
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC):  "2023-24",
		time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC):  "2023-24",
		time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC):  "2023-24",
		time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC):  "2022-23",
		time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC):  "2023-24",
		time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC): "2024-25",
	}
	for date, want := range cases {
		assert.Equal(t, want, seasonFor(date), date.Format("2006-01-02"))
	}
}
