package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/courtside/pickem/internal/providers"
	"github.com/courtside/pickem/internal/services"
	"github.com/courtside/pickem/internal/stats"
	"github.com/courtside/pickem/pkg/utils"
)

// SlateDirectory serves the day's games and their rosters.
type SlateDirectory interface {
	GamesForDate(ctx context.Context, date time.Time) ([]providers.ScheduledGame, error)
	Rosters(ctx context.Context, gameID string) (*services.GameRosters, error)
}

// BoxScoreDirectory lists the participants of played games.
type BoxScoreDirectory interface {
	PlayersForGame(ctx context.Context, gameID string) ([]providers.GamePlayer, error)
}

type GameHandler struct {
	schedule SlateDirectory
	nba      BoxScoreDirectory
	logger   *logrus.Logger
}

func NewGameHandler(schedule SlateDirectory, nba BoxScoreDirectory, logger *logrus.Logger) *GameHandler {
	return &GameHandler{schedule: schedule, nba: nba, logger: logger}
}

// ListGames returns the slate for a date (today by default).
func (h *GameHandler) ListGames(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.SendValidationError(c, "Invalid date, expected YYYY-MM-DD", err.Error())
		return
	}

	games, err := h.schedule.GamesForDate(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, stats.ErrSourceUnavailable) {
			utils.SendUpstreamUnavailable(c, "Schedule source unavailable, try again shortly")
			return
		}
		h.logger.WithError(err).WithField("date", dateStr).Error("Failed to load schedule")
		utils.SendInternalError(c, "Failed to load schedule")
		return
	}

	utils.SendSuccess(c, gin.H{
		"date":  date.Format("2006-01-02"),
		"games": games,
	})
}

// ListPlayers searches the players appearing across a date's slate,
// optionally narrowed by a name fragment.
func (h *GameHandler) ListPlayers(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.SendValidationError(c, "Invalid date, expected YYYY-MM-DD", err.Error())
		return
	}

	games, err := h.schedule.GamesForDate(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, stats.ErrSourceUnavailable) {
			utils.SendUpstreamUnavailable(c, "Schedule source unavailable, try again shortly")
			return
		}
		h.logger.WithError(err).WithField("date", dateStr).Error("Failed to load schedule")
		utils.SendInternalError(c, "Failed to load schedule")
		return
	}

	query := strings.ToLower(strings.TrimSpace(c.Query("query")))
	players := make([]providers.GamePlayer, 0)
	for _, game := range games {
		gamePlayers, err := h.nba.PlayersForGame(c.Request.Context(), game.GameID)
		if err != nil {
			// Unplayed games have no box score yet; leave them out.
			h.logger.WithError(err).WithField("game_id", game.GameID).Debug("No players for game")
			continue
		}
		for _, p := range gamePlayers {
			if query == "" || strings.Contains(strings.ToLower(p.PlayerName), query) {
				players = append(players, p)
			}
		}
	}

	utils.SendSuccess(c, gin.H{
		"date":    date.Format("2006-01-02"),
		"players": players,
	})
}

// GameRosters returns both teams' rosters for one game.
func (h *GameHandler) GameRosters(c *gin.Context) {
	gameID := c.Param("gameId")

	rosters, err := h.schedule.Rosters(c.Request.Context(), gameID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.SendNotFound(c, "Game not found")
		case errors.Is(err, stats.ErrSourceUnavailable):
			utils.SendUpstreamUnavailable(c, "Roster source unavailable, try again shortly")
		default:
			h.logger.WithError(err).WithField("game_id", gameID).Error("Failed to load rosters")
			utils.SendInternalError(c, "Failed to load rosters")
		}
		return
	}

	utils.SendSuccess(c, rosters)
}

// GamePlayers lists the players in a game's box score. Empty until the game
// has been played.
func (h *GameHandler) GamePlayers(c *gin.Context) {
	gameID := c.Param("gameId")

	players, err := h.nba.PlayersForGame(c.Request.Context(), gameID)
	if err != nil {
		if errors.Is(err, stats.ErrSourceUnavailable) {
			utils.SendUpstreamUnavailable(c, "Stats source unavailable, try again shortly")
			return
		}
		h.logger.WithError(err).WithField("game_id", gameID).Error("Failed to load game players")
		utils.SendInternalError(c, "Failed to load game players")
		return
	}

	utils.SendSuccess(c, gin.H{
		"game_id": gameID,
		"players": players,
	})
}
