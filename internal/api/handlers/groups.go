package handlers

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/courtside/pickem/internal/models"
	"github.com/courtside/pickem/pkg/database"
	"github.com/courtside/pickem/pkg/utils"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type GroupHandler struct {
	db *database.DB
}

func NewGroupHandler(db *database.DB) *GroupHandler {
	return &GroupHandler{db: db}
}

type createGroupRequest struct {
	GroupName   string `json:"group_name" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
}

type joinGroupRequest struct {
	GroupCode   string `json:"group_code" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
}

type groupOut struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type userOut struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
}

type groupResponse struct {
	Group groupOut `json:"group"`
	User  userOut  `json:"user"`
}

func generateCode() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// CreateGroup creates a group plus its first member.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	var group models.Group
	var user models.User
	err := h.db.Transaction(func(tx *gorm.DB) error {
		code := generateCode()
		// Regenerate on the rare collision.
		for {
			var count int64
			if err := tx.Model(&models.Group{}).Where("code = ?", code).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				break
			}
			code = generateCode()
		}

		group = models.Group{Name: req.GroupName, Code: code}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		user = models.User{DisplayName: req.DisplayName}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupMember{GroupID: group.ID, UserID: user.ID}).Error
	})
	if err != nil {
		utils.SendInternalError(c, "Failed to create group")
		return
	}

	utils.SendSuccess(c, groupResponse{
		Group: groupOut{ID: group.ID, Name: group.Name, Code: group.Code},
		User:  userOut{ID: user.ID, DisplayName: user.DisplayName},
	})
}

// JoinGroup adds a new member to an existing group by invite code.
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	var req joinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	group, ok := h.findGroup(c, req.GroupCode)
	if !ok {
		return
	}

	var user models.User
	err := h.db.Transaction(func(tx *gorm.DB) error {
		user = models.User{DisplayName: req.DisplayName}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupMember{GroupID: group.ID, UserID: user.ID}).Error
	})
	if err != nil {
		utils.SendInternalError(c, "Failed to join group")
		return
	}

	utils.SendSuccess(c, groupResponse{
		Group: groupOut{ID: group.ID, Name: group.Name, Code: group.Code},
		User:  userOut{ID: user.ID, DisplayName: user.DisplayName},
	})
}

type memberOut struct {
	ID          uint      `json:"id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

// ListMembers lists a group's members in join order.
func (h *GroupHandler) ListMembers(c *gin.Context) {
	group, ok := h.findGroup(c, c.Param("code"))
	if !ok {
		return
	}

	members := make([]memberOut, 0)
	err := h.db.Table("users").
		Select("users.id, users.display_name, group_members.joined_at").
		Joins("JOIN group_members ON group_members.user_id = users.id").
		Where("group_members.group_id = ?", group.ID).
		Order("group_members.joined_at ASC").
		Scan(&members).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to list members")
		return
	}

	utils.SendSuccess(c, members)
}

// SearchGroups finds groups by name or code fragment.
func (h *GroupHandler) SearchGroups(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		utils.SendSuccess(c, []groupOut{})
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 25 {
		limit = 25
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var groups []models.Group
	err := h.db.
		Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&groups).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to search groups")
		return
	}

	out := make([]groupOut, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupOut{ID: g.ID, Name: g.Name, Code: g.Code})
	}
	utils.SendSuccess(c, out)
}

// findGroup loads a group by invite code, replying 404 when absent.
func (h *GroupHandler) findGroup(c *gin.Context, code string) (*models.Group, bool) {
	var group models.Group
	err := h.db.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&group).Error
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
