package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courtside/pickem/pkg/database"
)

type HealthHandler struct {
	db *database.DB
}

func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK

	if sqlDB, err := h.db.DB.DB(); err != nil || sqlDB.Ping() != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": "pickem-api",
	})
}
