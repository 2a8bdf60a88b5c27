package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/courtside/pickem/internal/models"
	"github.com/courtside/pickem/internal/projection"
	"github.com/courtside/pickem/internal/providers"
	"github.com/courtside/pickem/internal/services"
	"github.com/courtside/pickem/internal/stats"
	"github.com/courtside/pickem/pkg/utils"
)

// PlayerDirectory resolves player identity: who played in a game, and what a
// player id is called league-wide.
type PlayerDirectory interface {
	PlayersForGame(ctx context.Context, gameID string) ([]providers.GamePlayer, error)
	PlayerName(ctx context.Context, playerID int64) (string, error)
}

type ProjectionHandler struct {
	store  *services.Store
	engine *projection.Engine
	lines  *services.LinesService
	nba    PlayerDirectory
	logger *logrus.Logger
}

func NewProjectionHandler(store *services.Store, engine *projection.Engine, lines *services.LinesService, nba PlayerDirectory, logger *logrus.Logger) *ProjectionHandler {
	return &ProjectionHandler{store: store, engine: engine, lines: lines, nba: nba, logger: logger}
}

type sportsbookOut struct {
	Provider    string     `json:"provider"`
	LastUpdated time.Time  `json:"last_updated"`
	Lines       stats.Line `json:"lines"`
}

type projectionOut struct {
	PlayerID   int64          `json:"player_id"`
	PlayerName string         `json:"player_name,omitempty"`
	Date       string         `json:"date"`
	Expected   stats.Line     `json:"expected"`
	NGamesUsed int            `json:"n_games_used"`
	Source     string         `json:"source"`
	Sportsbook *sportsbookOut `json:"sportsbook,omitempty"`
}

// PlayerProjection returns the frozen per-category projection for a player on
// a date, plus sportsbook lines when a provider is configured. Lines are
// display-only; Expected always carries the recent-games numbers that scoring
// will use.
func (h *ProjectionHandler) PlayerProjection(c *gin.Context) {
	playerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.SendValidationError(c, "Invalid player id", err.Error())
		return
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.SendValidationError(c, "Invalid date, expected YYYY-MM-DD", err.Error())
		return
	}
	date = services.DateOnly(date)

	// Sportsbook matching wants a name; resolve it from the box score when
	// the caller only knows the game.
	playerName := c.Query("name")
	if playerName == "" && c.Query("game_id") != "" && !services.IsFallbackPlayerID(playerID) {
		if players, err := h.nba.PlayersForGame(c.Request.Context(), c.Query("game_id")); err == nil {
			for _, p := range players {
				if p.PlayerID == playerID {
					playerName = p.PlayerName
					break
				}
			}
		}
	}
	// Last resort: the league index. Without a name the sportsbook lookup has
	// nothing to match against and lines are silently skipped.
	if playerName == "" && !services.IsFallbackPlayerID(playerID) {
		if name, err := h.nba.PlayerName(c.Request.Context(), playerID); err == nil {
			playerName = name
		} else {
			h.logger.WithError(err).WithField("player_id", playerID).Debug("Could not resolve player name")
		}
	}

	out := projectionOut{
		PlayerID:   playerID,
		PlayerName: playerName,
		Date:       date.Format("2006-01-02"),
		Expected:   stats.Line{},
		Source:     "recent_games",
	}

	// Fallback-range ids have no NBA Stats game log; their projection is
	// all zeros with no history, same as a debut player.
	if services.IsFallbackPlayerID(playerID) {
		out.Source = "no_history"
	} else {
		ctx := c.Request.Context()
		expected, err := h.store.GetOrCreateExpected(playerID, date, func() (*models.PlayerExpectedStat, error) {
			return h.engine.ComputeExpected(ctx, playerID, date)
		})
		if err != nil {
			if errors.Is(err, stats.ErrSourceUnavailable) {
				utils.SendUpstreamUnavailable(c, "Stats source unavailable, try again shortly")
				return
			}
			h.logger.WithError(err).WithField("player_id", playerID).Error("Failed to compute projection")
			utils.SendInternalError(c, "Failed to compute projection")
			return
		}
		out.Expected = expected.Line()
		out.NGamesUsed = expected.NGamesUsed
		if expected.NGamesUsed == 0 {
			out.Source = "no_history"
		}
	}

	if h.lines != nil && h.lines.Enabled() {
		if result := h.lines.PlayerLines(c.Request.Context(), playerID, playerName, date); result != nil {
			out.Sportsbook = &sportsbookOut{
				Provider:    result.Provider,
				LastUpdated: result.LastUpdated,
				Lines:       result.Lines,
			}
			// Lines take display precedence; scoring still uses Expected.
			out.Source = "sportsbook"
		}
	}

	utils.SendSuccess(c, out)
}
