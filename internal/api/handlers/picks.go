package handlers

import (
	"errors"
	"fmt"
	"net/http"
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

type PickHandler struct {
	db       *database.DB
	lockHour int
	location *time.Location
	logger   *logrus.Logger
}

// NewPickHandler builds a handler that locks picks at lockHour (24h clock) in
// the named timezone. An unknown timezone falls back to UTC.
func NewPickHandler(db *database.DB, lockHour int, timezone string, logger *logrus.Logger) *PickHandler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.WithError(err).WithField("timezone", timezone).Warn("Unknown pick timezone, using UTC")
		loc = time.UTC
	}
	return &PickHandler{db: db, lockHour: lockHour, location: loc, logger: logger}
}

type createPickRequest struct {
	UserID     uint   `json:"user_id" binding:"required"`
	Date       string `json:"date" binding:"required"`
	PlayerID   int64  `json:"player_id" binding:"required"`
	PlayerName string `json:"player_name" binding:"required"`
	GameID     string `json:"game_id"`
}

// lockTime is the moment picks for pickDate stop being accepted.
func (h *PickHandler) lockTime(pickDate time.Time) time.Time {
	return time.Date(pickDate.Year(), pickDate.Month(), pickDate.Day(), h.lockHour, 0, 0, 0, h.location)
}

// CreatePick records a member's player pick for a date. One pick per member
// per date; no replacements, and nothing after the daily lock.
func (h *PickHandler) CreatePick(c *gin.Context) {
	var req createPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	pickDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		utils.SendValidationError(c, "Invalid date, expected YYYY-MM-DD", err.Error())
		return
	}
	pickDate = services.DateOnly(pickDate)

	group, ok := h.loadGroup(c)
	if !ok {
		return
	}

	var membership models.GroupMember
	err = h.db.Where("group_id = ? AND user_id = ?", group.ID, req.UserID).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "User is not a member of this group")
		} else {
			utils.SendInternalError(c, "Failed to verify membership")
		}
		return
	}

	lockAt := h.lockTime(pickDate)
	if !time.Now().Before(lockAt) {
		utils.SendError(c, http.StatusBadRequest, utils.NewAppError(utils.ErrCodePicksLocked,
			fmt.Sprintf("Picks for %s locked at %s", req.Date, lockAt.Format("15:04 MST"))))
		return
	}

	pick := models.Pick{
		GroupID:    group.ID,
		UserID:     req.UserID,
		Date:       pickDate,
		PlayerID:   req.PlayerID,
		PlayerName: req.PlayerName,
		GameID:     req.GameID,
		Status:     models.PickStatusPicked,
		LockedAt:   &lockAt,
	}
	if err := h.db.Create(&pick).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			utils.SendConflict(c, "Pick already exists for this date")
			return
		}
		h.logger.WithError(err).Error("Failed to create pick")
		utils.SendInternalError(c, "Failed to create pick")
		return
	}

	utils.SendSuccess(c, pick)
}

type pickOut struct {
	ID          uint              `json:"id"`
	UserID      uint              `json:"user_id"`
	DisplayName string            `json:"display_name"`
	Date        string            `json:"date"`
	PlayerID    int64             `json:"player_id"`
	PlayerName  string            `json:"player_name"`
	GameID      string            `json:"game_id,omitempty"`
	Status      models.PickStatus `json:"status"`
}

// ListPicks lists a group's picks for one date with member names attached.
func (h *PickHandler) ListPicks(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		dateStr = time.Now().In(h.location).Format("2006-01-02")
	}
	pickDate, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.SendValidationError(c, "Invalid date, expected YYYY-MM-DD", err.Error())
		return
	}

	group, ok := h.loadGroup(c)
	if !ok {
		return
	}

	var picks []models.Pick
	err = h.db.Where("group_id = ? AND date = ?", group.ID, services.DateOnly(pickDate)).
		Order("created_at ASC").
		Find(&picks).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to list picks")
		return
	}

	userIDs := make([]uint, 0, len(picks))
	for _, p := range picks {
		userIDs = append(userIDs, p.UserID)
	}
	names := map[uint]string{}
	if len(userIDs) > 0 {
		var users []models.User
		if err := h.db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			utils.SendInternalError(c, "Failed to load members")
			return
		}
		for _, u := range users {
			names[u.ID] = u.DisplayName
		}
	}

	out := make([]pickOut, 0, len(picks))
	for _, p := range picks {
		out = append(out, pickOut{
			ID:          p.ID,
			UserID:      p.UserID,
			DisplayName: names[p.UserID],
			Date:        p.Date.Format("2006-01-02"),
			PlayerID:    p.PlayerID,
			PlayerName:  p.PlayerName,
			GameID:      p.GameID,
			Status:      p.Status,
		})
	}
	utils.SendSuccess(c, out)
}

func (h *PickHandler) loadGroup(c *gin.Context) (*models.Group, bool) {
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

// isUniqueViolation catches constraint errors the driver does not map to
// gorm.ErrDuplicatedKey (sqlite in particular).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
