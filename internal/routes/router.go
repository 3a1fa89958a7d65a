package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mseymur/FH-Room-Checker/internal/handlers"
)

// SetupRoutes инициализирует все маршруты приложения.
func SetupRoutes(r *gin.Engine, schedule *handlers.ScheduleHandler) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/buildings", schedule.ListBuildings)
		api.GET("/buildings/:code/snapshot", schedule.GetSnapshot)
		api.GET("/buildings/:code/schedule", schedule.GetDaySchedule)
		api.POST("/buildings/:code/sync", schedule.SyncBuilding)
	}
}
