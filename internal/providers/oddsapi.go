package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtside/pickem/internal/stats"
)

const oddsAPIBaseURL = "https://api.the-odds-api.com/v4"

// OddsAPIProvider pulls NBA player prop lines from The Odds API. Player props
// availability depends on the account's plan and markets; when the API has no
// usable lines the caller falls back to the recent-games projection.
type OddsAPIProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewOddsAPIProvider(apiKey string, timeout time.Duration, logger *logrus.Logger) *OddsAPIProvider {
	return &OddsAPIProvider{
		baseURL:    oddsAPIBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (p *OddsAPIProvider) Name() string {
	return "odds_api"
}

var oddsMarketCategories = map[string]stats.Category{
	"player_points":   stats.Points,
	"player_rebounds": stats.Rebounds,
	"player_assists":  stats.Assists,
	"player_steals":   stats.Steals,
	"player_blocks":   stats.Blocks,
}

type oddsAPIEvent struct {
	Bookmakers []struct {
		Markets []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name        string   `json:"name"`
				Description string   `json:"description"`
				Point       *float64 `json:"point"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// PlayerLines scans the day's events for prop outcomes matching the player
// name. Best effort: market shapes vary by plan, and a missing player simply
// yields no lines.
func (p *OddsAPIProvider) PlayerLines(ctx context.Context, playerID int64, playerName string, date time.Time) (*LineResult, error) {
	if strings.TrimSpace(playerName) == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("apiKey", p.apiKey)
	params.Set("regions", "us")
	params.Set("markets", "player_points,player_rebounds,player_assists,player_steals,player_blocks")
	params.Set("oddsFormat", "american")

	reqURL := fmt.Sprintf("%s/sports/basketball_nba/odds?%s", p.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("odds api: %v: %w", err, stats.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("odds api: unexpected status code %d: %w", resp.StatusCode, stats.ErrSourceUnavailable)
	}

	var events []oddsAPIEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("odds api: decode: %v: %w", err, stats.ErrSourceUnavailable)
	}

	needle := strings.ToLower(playerName)
	lines := make(stats.Line)
	for _, event := range events {
		for _, book := range event.Bookmakers {
			for _, market := range book.Markets {
				category, ok := oddsMarketCategories[market.Key]
				if !ok {
					continue
				}
				for _, outcome := range market.Outcomes {
					name := outcome.Description
					if name == "" {
						name = outcome.Name
					}
					if outcome.Point == nil || !strings.Contains(strings.ToLower(name), needle) {
						continue
					}
					if _, seen := lines[category]; !seen {
						lines[category] = *outcome.Point
					}
				}
			}
		}
	}

	if len(lines) == 0 {
		return nil, nil
	}
	return &LineResult{
		Provider:    p.Name(),
		LastUpdated: time.Now().UTC(),
		Lines:       lines,
	}, nil
}
