package timetable

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/Mseymur/FH-Room-Checker/models"
)

// GenerateTimeline перестраивает полную FREE/BUSY-ленту корпуса по
// результату синхронизации. Если результат не передан (nil), генератор сам
// запускает загрузку; если событий всё равно нет — возвращает 0.
//
// Перегенерируются все календарные дни диапазона [min(дата события),
// max(дата события)] для всех комнат корпуса, включая дни без событий
// (одна FREE-полоса на весь день). Старые слоты удаляются, новые
// вставляются одной транзакцией: читатель никогда не видит ленту
// наполовину.
func (s *Service) GenerateTimeline(ctx context.Context, buildingCode string, res *SyncResult) (int, error) {
	if res == nil {
		res = s.FetchBuilding(ctx, buildingCode)
	}
	if len(res.Events) == 0 {
		return 0, nil
	}

	var building models.Building
	if err := s.db.WithContext(ctx).Where("code = ?", res.BuildingCode).First(&building).Error; err != nil {
		return 0, err
	}
	var rooms []models.Room
	if err := s.db.WithContext(ctx).Where("building_id = ?", building.ID).Find(&rooms).Error; err != nil {
		return 0, err
	}

	// События группируются по комнате и календарному дню один раз,
	// дальше каждая пара (день, комната) обрабатывается независимо.
	byRoomDay := make(map[string]map[string][]ClassEvent)
	var minDay, maxDay time.Time
	for _, ev := range res.Events {
		day := s.dayKey(ev.Start)
		if byRoomDay[ev.RoomCode] == nil {
			byRoomDay[ev.RoomCode] = make(map[string][]ClassEvent)
		}
		byRoomDay[ev.RoomCode][day] = append(byRoomDay[ev.RoomCode][day], ev)

		midnight := s.midnight(ev.Start)
		if minDay.IsZero() || midnight.Before(minDay) {
			minDay = midnight
		}
		if midnight.After(maxDay) {
			maxDay = midnight
		}
	}

	total := 0
	var days []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for day := minDay; !day.After(maxDay); day = day.AddDate(0, 0, 1) {
			winStart, winEnd := s.windowOnDay(day)
			days = append(days, s.dayKey(day))

			for _, room := range rooms {
				// Полная перезапись: сначала удаляем всё, что комната имела
				// за этот календарный день.
				if err := tx.Where("room_id = ? AND start_time >= ? AND start_time < ?",
					room.ID, day, day.AddDate(0, 0, 1)).
					Delete(&models.ScheduleSlot{}).Error; err != nil {
					return err
				}

				slots := buildDaySlots(room.ID, winStart, winEnd, byRoomDay[room.FullCode][s.dayKey(day)])
				if err := tx.Create(&slots).Error; err != nil {
					return err
				}
				total += len(slots)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.invalidateScheduleCache(ctx, res.BuildingCode, days)
	slog.Info("Timeline regenerated",
		"building", res.BuildingCode,
		"days", len(days),
		"rooms", len(rooms),
		"slots", total,
	)
	return total, nil
}

// buildDaySlots строит слоты одной комнаты на один день: указатель идёт от
// начала рабочего окна, дыры между занятиями заполняются FREE-слотами.
//
// События с началом раньше указателя пропускаются (защита от пересечений во
// входных данных). События с одинаковым началом обрабатываются в порядке
// поступления без разрешения конфликта — известное ограничение исходных
// данных, здесь оно не «чинится».
func buildDaySlots(roomID uint, winStart, winEnd time.Time, events []ClassEvent) []models.ScheduleSlot {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	var slots []models.ScheduleSlot
	pointer := winStart
	for _, ev := range events {
		if ev.Start.Before(pointer) {
			continue
		}
		if ev.Start.After(pointer) {
			slots = append(slots, models.ScheduleSlot{
				RoomID:    roomID,
				Status:    models.SlotFree,
				StartTime: pointer,
				EndTime:   ev.Start,
			})
		}
		slots = append(slots, models.ScheduleSlot{
			RoomID:     roomID,
			Status:     models.SlotBusy,
			StartTime:  ev.Start,
			EndTime:    ev.End,
			Title:      ev.Title,
			Teacher:    ev.Teacher,
			ClassName:  ev.ClassName,
			ExternalID: ev.ExternalID,
			Color:      ev.Color,
		})
		pointer = ev.End
	}

	if pointer.Before(winEnd) {
		slots = append(slots, models.ScheduleSlot{
			RoomID:    roomID,
			Status:    models.SlotFree,
			StartTime: pointer,
			EndTime:   winEnd,
		})
	}
	return slots
}
