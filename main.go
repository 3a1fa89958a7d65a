package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/Mseymur/FH-Room-Checker/config"
	"github.com/Mseymur/FH-Room-Checker/internal/handlers"
	"github.com/Mseymur/FH-Room-Checker/internal/jobs"
	"github.com/Mseymur/FH-Room-Checker/internal/routes"
	"github.com/Mseymur/FH-Room-Checker/internal/timetable"
)

func main() {
	config.LoadConfig()
	config.ConnectDB()
	config.ConnectRedis()

	svc := timetable.NewService(config.DB, config.RDB, timetable.Options{
		APIBaseURL:   config.App.TimetableAPIURL,
		Timezone:     config.App.Timezone,
		WindowStart:  config.App.DayWindowStart,
		WindowEnd:    config.App.DayWindowEnd,
		FetchTimeout: config.App.FetchTimeout,
	})

	if _, err := jobs.StartScheduler(svc, config.App.SyncCron, config.App.AllowedBuildings); err != nil {
		slog.Error("Failed to start sync scheduler", "error", err)
		os.Exit(1)
	}

	r := gin.Default()
	routes.SetupRoutes(r, handlers.NewScheduleHandler(svc))

	slog.Info("FH Room Checker is listening", "port", config.App.Port)
	if err := r.Run(":" + config.App.Port); err != nil {
		slog.Error("HTTP server stopped", "error", err)
		os.Exit(1)
	}
}
