package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Mseymur/FH-Room-Checker/config"
	"github.com/Mseymur/FH-Room-Checker/internal/timetable"
)

// ScheduleHandler — тонкий транспортный слой над ядром timetable.
type ScheduleHandler struct {
	svc *timetable.Service
}

func NewScheduleHandler(svc *timetable.Service) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

// allowedBuilding проверяет код корпуса по списку разрешённых и нормализует
// его. Неизвестный корпус — это 404 "building not available", отличимый от
// пустого расписания.
func (h *ScheduleHandler) allowedBuilding(c *gin.Context) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if code == "" || !config.App.IsBuildingAllowed(code) {
		c.JSON(http.StatusNotFound, gin.H{"error": "building not available"})
		return "", false
	}
	return code, true
}

// GetSnapshot обрабатывает GET /api/buildings/:code/snapshot.
// Принимает необязательные date (YYYY-MM-DD) и time (HH:mm[:ss]);
// нечитаемые значения деградируют к текущему моменту.
func (h *ScheduleHandler) GetSnapshot(c *gin.Context) {
	code, ok := h.allowedBuilding(c)
	if !ok {
		return
	}

	moment := h.svc.ResolveMoment(c.Query("date"), c.Query("time"))
	snapshots, err := h.svc.SnapshotAt(c.Request.Context(), code, moment)
	if errors.Is(err, timetable.ErrBuildingNotInitialized) {
		// Первый запрос к корпусу: пробуем синхронизироваться и повторяем.
		if _, _, syncErr := h.svc.SyncBuilding(c.Request.Context(), code); syncErr != nil {
			slog.Error("On-demand sync failed", "building", code, "error", syncErr)
		}
		snapshots, err = h.svc.SnapshotAt(c.Request.Context(), code, moment)
	}
	if errors.Is(err, timetable.ErrBuildingNotInitialized) {
		c.JSON(http.StatusNotFound, gin.H{"error": "building not available"})
		return
	}
	if err != nil {
		slog.Error("Failed to build snapshot", "building", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"building": code,
		"moment":   moment,
		"rooms":    snapshots,
	})
}

// GetDaySchedule обрабатывает GET /api/buildings/:code/schedule и возвращает
// полное расписание корпуса на день, упорядоченное по этажу, номеру комнаты
// и началу слота.
func (h *ScheduleHandler) GetDaySchedule(c *gin.Context) {
	code, ok := h.allowedBuilding(c)
	if !ok {
		return
	}

	moment := h.svc.ResolveMoment(c.Query("date"), "")
	entries, err := h.svc.DaySchedule(c.Request.Context(), code, moment)
	if errors.Is(err, timetable.ErrBuildingNotInitialized) {
		if _, _, syncErr := h.svc.SyncBuilding(c.Request.Context(), code); syncErr != nil {
			slog.Error("On-demand sync failed", "building", code, "error", syncErr)
		}
		entries, err = h.svc.DaySchedule(c.Request.Context(), code, moment)
	}
	if errors.Is(err, timetable.ErrBuildingNotInitialized) {
		c.JSON(http.StatusNotFound, gin.H{"error": "building not available"})
		return
	}
	if err != nil {
		slog.Error("Failed to fetch day schedule", "building", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"building": code,
		"date":     moment.Format("2006-01-02"),
		"schedule": entries,
	})
}

// SyncBuilding обрабатывает POST /api/buildings/:code/sync — ручной запуск
// той же идемпотентной синхронизации, что выполняет планировщик.
func (h *ScheduleHandler) SyncBuilding(c *gin.Context) {
	code, ok := h.allowedBuilding(c)
	if !ok {
		return
	}

	events, slots, err := h.svc.SyncBuilding(c.Request.Context(), code)
	if err != nil {
		slog.Error("Manual sync failed", "building", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"building":        code,
		"events_parsed":   events,
		"slots_generated": slots,
	})
}
