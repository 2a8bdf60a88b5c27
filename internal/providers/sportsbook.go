package providers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtside/pickem/internal/stats"
	"github.com/courtside/pickem/pkg/config"
)

// LineResult is a provider's per-category lines for one player on one date.
type LineResult struct {
	Provider    string     `json:"provider"`
	LastUpdated time.Time  `json:"last_updated"`
	Lines       stats.Line `json:"lines"`
}

// SportsbookProvider supplies expected-stat lines from an external book.
// Lines compete with the recent-games projection for display only; the
// scoring path never reads them. Implementations return (nil, nil) when no
// usable lines exist for the player.
type SportsbookProvider interface {
	Name() string
	PlayerLines(ctx context.Context, playerID int64, playerName string, date time.Time) (*LineResult, error)
}

// SportsbookFromConfig picks the provider variant once at startup. Returns
// nil when none is configured; callers treat that as "recent games only".
func SportsbookFromConfig(cfg *config.Config, logger *logrus.Logger) SportsbookProvider {
	switch cfg.SportsbookProvider {
	case "oddsapi":
		if cfg.OddsAPIKey == "" {
			logger.Warn("SPORTSBOOK_PROVIDER=oddsapi but ODDS_API_KEY is empty; sportsbook disabled")
			return nil
		}
		return NewOddsAPIProvider(cfg.OddsAPIKey, cfg.ExternalAPITimeout, logger)
	case "linesfile":
		if cfg.LinesFilePath == "" {
			logger.Warn("SPORTSBOOK_PROVIDER=linesfile but LINES_FILE_PATH is empty; sportsbook disabled")
			return nil
		}
		return NewLinesFileProvider(cfg.LinesFilePath, logger)
	case "":
		return nil
	default:
		logger.Warnf("Unknown sportsbook provider %q; sportsbook disabled", cfg.SportsbookProvider)
		return nil
	}
}
