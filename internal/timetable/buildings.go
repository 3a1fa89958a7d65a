package timetable

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Mseymur/FH-Room-Checker/models"
)

// BuildingStatus — сводка по корпусу для списка корпусов: разрешён ли код,
// синхронизирован ли он и сколько комнат известно.
type BuildingStatus struct {
	Code       string     `json:"code"`
	Synced     bool       `json:"synced"`
	RoomCount  int64      `json:"room_count"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

// BuildingStatuses возвращает сводку по каждому коду из списка разрешённых.
// Корпуса, которых ещё нет в базе, отдаются как несинхронизированные.
func (s *Service) BuildingStatuses(ctx context.Context, codes []string) ([]BuildingStatus, error) {
	statuses := make([]BuildingStatus, 0, len(codes))
	for _, code := range codes {
		status := BuildingStatus{Code: code}

		var building models.Building
		err := s.db.WithContext(ctx).Where("code = ?", code).First(&building).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			statuses = append(statuses, status)
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := s.db.WithContext(ctx).Model(&models.Room{}).
			Where("building_id = ?", building.ID).Count(&status.RoomCount).Error; err != nil {
			return nil, err
		}

		var raw models.RawData
		if err := s.db.WithContext(ctx).Where("building_id = ?", building.ID).First(&raw).Error; err == nil {
			status.Synced = true
			status.LastSyncAt = &raw.UpdatedAt
		}

		statuses = append(statuses, status)
	}
	return statuses, nil
}
