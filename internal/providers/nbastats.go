package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/courtside/pickem/internal/stats"
)

const nbaStatsBaseURL = "https://stats.nba.com/stats"

// NBAStatsClient is the stat source adapter: the only component that talks to
// the NBA Stats API. Engines consume its output and stored state only.
type NBAStatsClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewNBAStatsClient builds a client with the given upstream timeout, a
// per-second request budget and a consecutive-failure breaker threshold.
func NewNBAStatsClient(timeout time.Duration, rateLimit int, breakerThreshold uint32, logger *logrus.Logger) *NBAStatsClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "nba-stats",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return &NBAStatsClient{
		baseURL:    nbaStatsBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		breaker:    breaker,
		logger:     logger,
	}
}

type nbaStatsResponse struct {
	ResultSets []struct {
		Name    string          `json:"name"`
		Headers []string        `json:"headers"`
		RowSet  [][]interface{} `json:"rowSet"`
	} `json:"resultSets"`
}

// PlayerGameLog row indices.
const (
	glIdxGameDate  = 3
	glIdxRebounds  = 18
	glIdxAssists   = 19
	glIdxSteals    = 20
	glIdxBlocks    = 21
	glIdxTurnovers = 22
	glIdxFouls     = 23
	glIdxPoints    = 24
)

// BoxScoreTraditionalV2 PlayerStats row indices.
const (
	bsIdxPlayerID   = 4
	bsIdxPlayerName = 5
	bsIdxTeamAbbr   = 7
	bsIdxMinutes    = 9
	bsIdxRebounds   = 20
	bsIdxAssists    = 21
	bsIdxSteals     = 22
	bsIdxBlocks     = 23
	bsIdxTurnovers  = 24
	bsIdxFouls      = 25
	bsIdxPoints     = 26
)

// RecentGames returns at most limit games for the player dated strictly
// before the bound, most recent first. Games on or after the bound are
// skipped; there is no look-ahead.
func (c *NBAStatsClient) RecentGames(ctx context.Context, playerID int64, before time.Time, limit int) ([]stats.GameLine, error) {
	params := url.Values{}
	params.Set("PlayerID", fmt.Sprintf("%d", playerID))
	params.Set("Season", seasonFor(before))
	params.Set("SeasonType", "Regular Season")
	params.Set("DateTo", before.Format("01/02/2006"))

	var resp nbaStatsResponse
	if err := c.get(ctx, "/playergamelog", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.ResultSets) == 0 {
		return nil, fmt.Errorf("game log for player %d: empty result: %w", playerID, stats.ErrSourceUnavailable)
	}

	games := make([]stats.GameLine, 0, limit)
	for _, row := range resp.ResultSets[0].RowSet {
		if len(row) <= glIdxPoints {
			continue
		}
		gameDate, err := time.Parse("Jan 02, 2006", asString(row[glIdxGameDate]))
		if err != nil {
			return nil, fmt.Errorf("game log for player %d: bad date %q: %w", playerID, row[glIdxGameDate], stats.ErrSourceUnavailable)
		}
		// DateTo is inclusive upstream; the bound here is exclusive.
		if !gameDate.Before(before) {
			continue
		}
		games = append(games, stats.GameLine{
			GameDate: gameDate,
			Stats: stats.Line{
				stats.Points:        asFloat(row[glIdxPoints]),
				stats.Assists:       asFloat(row[glIdxAssists]),
				stats.Rebounds:      asFloat(row[glIdxRebounds]),
				stats.Steals:        asFloat(row[glIdxSteals]),
				stats.Blocks:        asFloat(row[glIdxBlocks]),
				stats.Turnovers:     asFloat(row[glIdxTurnovers]),
				stats.PersonalFouls: asFloat(row[glIdxFouls]),
			},
		})
		if len(games) >= limit {
			break
		}
	}
	return games, nil
}

// GamePlayer is one participant in a game's box score.
type GamePlayer struct {
	PlayerID   int64  `json:"player_id"`
	PlayerName string `json:"player_name"`
	Team       string `json:"team"`
	GameID     string `json:"game_id"`
}

// PlayersForGame lists the players appearing in a game's box score.
func (c *NBAStatsClient) PlayersForGame(ctx context.Context, gameID string) ([]GamePlayer, error) {
	rows, err := c.boxScoreRows(ctx, gameID)
	if err != nil {
		return nil, err
	}

	players := make([]GamePlayer, 0, len(rows))
	for _, row := range rows {
		players = append(players, GamePlayer{
			PlayerID:   int64(asFloat(row[bsIdxPlayerID])),
			PlayerName: asString(row[bsIdxPlayerName]),
			Team:       asString(row[bsIdxTeamAbbr]),
			GameID:     gameID,
		})
	}
	return players, nil
}

// PlayerName resolves a player's display name from the league index. Used
// when the caller supplied neither a name nor a game to look the player up in.
func (c *NBAStatsClient) PlayerName(ctx context.Context, playerID int64) (string, error) {
	params := url.Values{}
	params.Set("PlayerID", fmt.Sprintf("%d", playerID))

	var resp nbaStatsResponse
	if err := c.get(ctx, "/commonplayerinfo", params, &resp); err != nil {
		return "", err
	}

	for _, set := range resp.ResultSets {
		if set.Name != "CommonPlayerInfo" || len(set.RowSet) == 0 {
			continue
		}
		for i, header := range set.Headers {
			if header != "DISPLAY_FIRST_LAST" || i >= len(set.RowSet[0]) {
				continue
			}
			if name := asString(set.RowSet[0][i]); name != "" {
				return name, nil
			}
		}
	}
	return "", fmt.Errorf("player info %d: missing display name: %w", playerID, stats.ErrSourceUnavailable)
}

// BoxScore returns the player's line for a finished game, or (nil, nil) when
// the player did not appear in it.
func (c *NBAStatsClient) BoxScore(ctx context.Context, gameID string, playerID int64) (*stats.BoxScore, error) {
	rows, err := c.boxScoreRows(ctx, gameID)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if int64(asFloat(row[bsIdxPlayerID])) != playerID {
			continue
		}
		return &stats.BoxScore{
			Minutes: asString(row[bsIdxMinutes]),
			Stats: stats.Line{
				stats.Points:        asFloat(row[bsIdxPoints]),
				stats.Assists:       asFloat(row[bsIdxAssists]),
				stats.Rebounds:      asFloat(row[bsIdxRebounds]),
				stats.Steals:        asFloat(row[bsIdxSteals]),
				stats.Blocks:        asFloat(row[bsIdxBlocks]),
				stats.Turnovers:     asFloat(row[bsIdxTurnovers]),
				stats.PersonalFouls: asFloat(row[bsIdxFouls]),
			},
		}, nil
	}
	return nil, nil
}

func (c *NBAStatsClient) boxScoreRows(ctx context.Context, gameID string) ([][]interface{}, error) {
	params := url.Values{}
	params.Set("GameID", gameID)
	params.Set("StartPeriod", "0")
	params.Set("EndPeriod", "10")
	params.Set("StartRange", "0")
	params.Set("EndRange", "0")
	params.Set("RangeType", "0")

	var resp nbaStatsResponse
	if err := c.get(ctx, "/boxscoretraditionalv2", params, &resp); err != nil {
		return nil, err
	}

	for _, set := range resp.ResultSets {
		if set.Name != "PlayerStats" {
			continue
		}
		rows := make([][]interface{}, 0, len(set.RowSet))
		for _, row := range set.RowSet {
			if len(row) > bsIdxPoints {
				rows = append(rows, row)
			}
		}
		return rows, nil
	}
	return nil, fmt.Errorf("box score %s: missing PlayerStats: %w", gameID, stats.ErrSourceUnavailable)
}

func (c *NBAStatsClient) get(ctx context.Context, path string, params url.Values, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %v: %w", err, stats.ErrSourceUnavailable)
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		// stats.nba.com rejects requests without browser-ish headers.
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
		req.Header.Set("Referer", "https://www.nba.com/")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return nil, json.NewDecoder(resp.Body).Decode(target)
	})
	if err != nil {
		c.logger.WithError(err).Warnf("NBA Stats request failed: %s", path)
		return fmt.Errorf("nba stats %s: %v: %w", path, err, stats.ErrSourceUnavailable)
	}
	return nil
}

// seasonFor maps a date to the NBA season string it falls in, e.g. "2023-24".
// Seasons roll over in October.
func seasonFor(d time.Time) string {
	year := d.Year()
	if d.Month() < time.October {
		year--
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}

func asFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, _ := val.Float64()
		return f
	default:
		return 0
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
