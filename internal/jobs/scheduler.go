package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Mseymur/FH-Room-Checker/internal/timetable"
)

// StartScheduler запускает периодическую синхронизацию всех разрешённых
// корпусов по cron-расписанию. Ошибка одного корпуса не прерывает обход:
// повтор произойдёт на следующем тике.
func StartScheduler(svc *timetable.Service, spec string, buildings []string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		syncAll(svc, buildings)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	slog.Info("Sync scheduler started", "cron", spec, "buildings", len(buildings))
	return c, nil
}

func syncAll(svc *timetable.Service, buildings []string) {
	for _, code := range buildings {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		events, slots, err := svc.SyncBuilding(ctx, code)
		cancel()
		if err != nil {
			slog.Error("Scheduled sync failed", "building", code, "error", err)
			continue
		}
		if events > 0 || slots > 0 {
			slog.Info("Scheduled sync finished", "building", code, "events", events, "slots", slots)
		}
	}
}
