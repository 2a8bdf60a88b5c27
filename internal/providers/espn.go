package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/courtside/pickem/internal/stats"
)

const espnBaseURL = "https://site.api.espn.com/apis/site/v2/sports/basketball/nba"

// ESPNClient reads the ESPN public JSON feeds for NBA schedules and team
// rosters. No HTML scraping.
type ESPNClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

func NewESPNClient(timeout time.Duration, breakerThreshold uint32, logger *logrus.Logger) *ESPNClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "espn",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return &ESPNClient{
		baseURL:    espnBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		logger:     logger,
	}
}

// ScheduledGame is one game on a day's slate.
type ScheduledGame struct {
	GameID     string `json:"game_id"`
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	StartTime  string `json:"start_time"`
	HomeTeamID string `json:"home_team_id"`
	AwayTeamID string `json:"away_team_id"`
}

type espnScoreboardResponse struct {
	Events []struct {
		ID           string `json:"id"`
		Date         string `json:"date"`
		Competitions []struct {
			Competitors []struct {
				HomeAway string   `json:"homeAway"`
				Team     espnTeam `json:"team"`
			} `json:"competitors"`
		} `json:"competitions"`
	} `json:"events"`
}

type espnTeam struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
}

// Scoreboard fetches the slate for a calendar date.
func (c *ESPNClient) Scoreboard(ctx context.Context, date time.Time) ([]ScheduledGame, error) {
	url := fmt.Sprintf("%s/scoreboard?dates=%s", c.baseURL, date.Format("20060102"))

	var resp espnScoreboardResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("scoreboard %s: %w", date.Format("2006-01-02"), err)
	}

	games := make([]ScheduledGame, 0, len(resp.Events))
	for _, event := range resp.Events {
		if event.ID == "" || len(event.Competitions) == 0 {
			continue
		}
		game := ScheduledGame{
			GameID:    event.ID,
			StartTime: event.Date,
		}
		for _, competitor := range event.Competitions[0].Competitors {
			label := competitor.Team.Abbreviation
			if label == "" {
				label = competitor.Team.DisplayName
			}
			switch competitor.HomeAway {
			case "home":
				game.HomeTeam = label
				game.HomeTeamID = competitor.Team.ID
			case "away":
				game.AwayTeam = label
				game.AwayTeamID = competitor.Team.ID
			}
		}
		games = append(games, game)
	}
	return games, nil
}

// RosterPlayer is one athlete on a team roster.
type RosterPlayer struct {
	AthleteID string `json:"athlete_id"`
	FullName  string `json:"full_name"`
	Position  string `json:"position,omitempty"`
	Jersey    string `json:"jersey,omitempty"`
}

// TeamRoster is a team's current roster.
type TeamRoster struct {
	TeamID   string         `json:"team_id"`
	TeamName string         `json:"team_name"`
	TeamAbbr string         `json:"team_abbr"`
	Players  []RosterPlayer `json:"players"`
}

type espnRosterResponse struct {
	Team struct {
		DisplayName  string `json:"displayName"`
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
	Athletes []struct {
		Position string        `json:"position"`
		Items    []espnAthlete `json:"items"`
	} `json:"athletes"`
}

type espnAthlete struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	DisplayName string `json:"displayName"`
	Jersey      string `json:"jersey"`
	Position    struct {
		Abbreviation string `json:"abbreviation"`
		Name         string `json:"name"`
	} `json:"position"`
}

// Roster fetches a team's roster. ESPN groups athletes by position; the
// result is flattened.
func (c *ESPNClient) Roster(ctx context.Context, teamID string) (*TeamRoster, error) {
	url := fmt.Sprintf("%s/teams/%s/roster", c.baseURL, teamID)

	var resp espnRosterResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("roster for team %s: %w", teamID, err)
	}

	roster := &TeamRoster{
		TeamID:   teamID,
		TeamName: resp.Team.DisplayName,
		TeamAbbr: resp.Team.Abbreviation,
	}
	for _, group := range resp.Athletes {
		for _, athlete := range group.Items {
			name := athlete.FullName
			if name == "" {
				name = athlete.DisplayName
			}
			if name == "" {
				continue
			}
			pos := athlete.Position.Abbreviation
			if pos == "" {
				pos = athlete.Position.Name
			}
			roster.Players = append(roster.Players, RosterPlayer{
				AthleteID: athlete.ID,
				FullName:  name,
				Position:  pos,
				Jersey:    athlete.Jersey,
			})
		}
	}
	return roster, nil
}

func (c *ESPNClient) get(ctx context.Context, url string, target interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
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
		c.logger.WithError(err).Warn("ESPN request failed")
		return fmt.Errorf("espn: %v: %w", err, stats.ErrSourceUnavailable)
	}
	return nil
}
