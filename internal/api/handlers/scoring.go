package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/courtside/pickem/internal/models"
	"github.com/courtside/pickem/internal/services"
	"github.com/courtside/pickem/pkg/database"
	"github.com/courtside/pickem/pkg/utils"
)

type ScoringHandler struct {
	db     *database.DB
	scorer *services.Scorer
	logger *logrus.Logger
}

func NewScoringHandler(db *database.DB, scorer *services.Scorer, logger *logrus.Logger) *ScoringHandler {
	return &ScoringHandler{db: db, scorer: scorer, logger: logger}
}

// ScoreDay scores a group's picks for one date. Safe to call repeatedly:
// already-scored picks return their stored results, unscoreable picks wait
// for the next call.
func (h *ScoringHandler) ScoreDay(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.SendValidationError(c, "Invalid date, expected YYYY-MM-DD", err.Error())
		return
	}

	group, ok := h.findGroup(c)
	if !ok {
		return
	}

	outcome, err := h.scorer.ScoreDay(c.Request.Context(), group.ID, date)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"group_id": group.ID,
			"date":     dateStr,
		}).Error("Score day failed")
		utils.SendInternalError(c, "Failed to score picks")
		return
	}

	utils.SendSuccess(c, gin.H{
		"date":               date.Format("2006-01-02"),
		"leaderboard":        outcome.Leaderboard,
		"picks_with_results": outcome.Results,
	})
}

// DayLeaderboard reads the stored per-user totals for one date. Read-only:
// it never triggers scoring.
func (h *ScoringHandler) DayLeaderboard(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.SendValidationError(c, "Invalid date, expected YYYY-MM-DD", err.Error())
		return
	}

	group, ok := h.findGroup(c)
	if !ok {
		return
	}

	rows, err := h.scorer.DayLeaderboard(group.ID, date)
	if err != nil {
		utils.SendInternalError(c, "Failed to load leaderboard")
		return
	}
	utils.SendSuccess(c, gin.H{
		"date":        date.Format("2006-01-02"),
		"leaderboard": rows,
	})
}

// AllTimeLeaderboard totals every scored pick per user in a group.
func (h *ScoringHandler) AllTimeLeaderboard(c *gin.Context) {
	group, ok := h.findGroup(c)
	if !ok {
		return
	}

	rows, err := h.scorer.AllTimeLeaderboard(group.ID)
	if err != nil {
		utils.SendInternalError(c, "Failed to load leaderboard")
		return
	}
	utils.SendSuccess(c, gin.H{"leaderboard": rows})
}

func (h *ScoringHandler) findGroup(c *gin.Context) (*models.Group, bool) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	var group models.Group
	err := h.db.Where("code = ?", code).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "Group not found")
		} else {
			utils.SendInternalError(c, "Failed to load group")
		}
		return nil, false
	}
	return &group, true
}
