package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mseymur/FH-Room-Checker/config"
)

// ListBuildings обрабатывает GET /api/buildings: список разрешённых корпусов
// со статусом синхронизации каждого.
func (h *ScheduleHandler) ListBuildings(c *gin.Context) {
	statuses, err := h.svc.BuildingStatuses(c.Request.Context(), config.App.AllowedBuildings)
	if err != nil {
		slog.Error("Failed to list buildings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"buildings": statuses})
}
