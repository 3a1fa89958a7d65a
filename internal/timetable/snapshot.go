package timetable

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Mseymur/FH-Room-Checker/models"
)

// ScheduleEntry — одна строка дневного расписания: слот вместе с данными
// комнаты. Порядок строк (этаж → номер комнаты → начало слота) — контракт,
// на который опирается интерфейс.
type ScheduleEntry struct {
	RoomID     uint      `json:"room_id"`
	RoomCode   string    `json:"room_code"`
	Floor      string    `json:"floor"`
	Number     string    `json:"number"`
	Status     string    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Title      string    `json:"title,omitempty"`
	Teacher    string    `json:"teacher,omitempty"`
	ClassName  string    `json:"class_name,omitempty"`
	ExternalID string    `json:"external_id,omitempty"`
	Color      string    `json:"color,omitempty"`
}

// Snapshot — состояние одной комнаты на момент запроса: активный слот плюс
// производные метрики доступности.
type Snapshot struct {
	ScheduleEntry

	// MinutesLeft: для FREE — минут до конца свободного времени, для
	// BUSY — минут до конца занятия. Округляется вниз, не бывает
	// отрицательным.
	MinutesLeft int `json:"minutes_left"`

	// Только для FREE-слотов.
	FreeUntil  *time.Time `json:"free_until,omitempty"`
	IsEndOfDay bool       `json:"is_end_of_day"`

	// Только для BUSY-слотов: сколько минут комната будет свободна после
	// конца текущего занятия.
	NextSlotFreeMinutes int `json:"next_slot_free_minutes"`
}

// ResolveMoment разбирает необязательные дату и время запроса в фиксированной
// таймзоне. Дата без времени означает начало рабочего окна этого дня. Любая
// ошибка разбора деградирует к текущему моменту — наружу ошибки не выходят.
func (s *Service) ResolveMoment(dateStr, timeStr string) time.Time {
	now := time.Now().In(s.opts.Timezone)
	if dateStr == "" {
		return now
	}

	day, err := time.ParseInLocation("2006-01-02", dateStr, s.opts.Timezone)
	if err != nil {
		slog.Debug("Unparseable date in query, falling back to now", "date", dateStr)
		return now
	}

	if timeStr == "" {
		return day.Add(s.opts.WindowStart)
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, timeStr); err == nil {
			return day.Add(time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second)
		}
	}
	slog.Debug("Unparseable time in query, falling back to now", "time", timeStr)
	return now
}

// DaySchedule возвращает полное расписание корпуса на календарный день
// момента moment, отсортированное по этажу, номеру комнаты и началу слота.
// Результат кэшируется в Redis с коротким TTL, если кэш настроен.
func (s *Service) DaySchedule(ctx context.Context, buildingCode string, moment time.Time) ([]ScheduleEntry, error) {
	day := s.dayKey(moment)
	cacheKey := scheduleCacheKey(buildingCode, day)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var entries []ScheduleEntry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				return entries, nil
			}
		}
	}

	var building models.Building
	err := s.db.WithContext(ctx).Where("code = ?", buildingCode).First(&building).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBuildingNotInitialized
	}
	if err != nil {
		return nil, err
	}

	dayStart := s.midnight(moment)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var entries []ScheduleEntry
	err = s.db.WithContext(ctx).Model(&models.ScheduleSlot{}).
		Select("schedule_slots.room_id, rooms.full_code AS room_code, rooms.floor, rooms.number, "+
			"schedule_slots.status, schedule_slots.start_time, schedule_slots.end_time, "+
			"schedule_slots.title, schedule_slots.teacher, schedule_slots.class_name, "+
			"schedule_slots.external_id, schedule_slots.color").
		Joins("JOIN rooms ON rooms.id = schedule_slots.room_id").
		Where("rooms.building_id = ? AND schedule_slots.start_time >= ? AND schedule_slots.start_time < ?",
			building.ID, dayStart, dayEnd).
		Order("rooms.floor, rooms.number, schedule_slots.start_time").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrBuildingNotInitialized
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(entries); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, payload, 5*time.Minute).Err(); err != nil {
				slog.Warn("Failed to cache day schedule", "building", buildingCode, "error", err)
			}
		}
	}
	return entries, nil
}

// SnapshotAt вычисляет состояние всех комнат корпуса на момент moment:
// по одному активному слоту на комнату с производными метриками.
func (s *Service) SnapshotAt(ctx context.Context, buildingCode string, moment time.Time) ([]Snapshot, error) {
	entries, err := s.DaySchedule(ctx, buildingCode, moment)
	if err != nil {
		return nil, err
	}

	_, windowEnd := s.windowOnDay(moment)

	// Слоты уже отсортированы; группируем по комнате, сохраняя порядок.
	byRoom := make(map[uint][]ScheduleEntry)
	var roomOrder []uint
	for _, e := range entries {
		if _, seen := byRoom[e.RoomID]; !seen {
			roomOrder = append(roomOrder, e.RoomID)
		}
		byRoom[e.RoomID] = append(byRoom[e.RoomID], e)
	}

	snapshots := make([]Snapshot, 0, len(roomOrder))
	for _, roomID := range roomOrder {
		slots := byRoom[roomID]
		for _, slot := range slots {
			// Полуоткрытый интервал: момент ровно на границе принадлежит
			// начинающемуся слоту, а не заканчивающемуся.
			if !slotActiveAt(slot, moment) {
				continue
			}
			snapshots = append(snapshots, buildSnapshot(slot, slots, moment, windowEnd))
		}
	}
	return snapshots, nil
}

func slotActiveAt(slot ScheduleEntry, moment time.Time) bool {
	return !moment.Before(slot.StartTime) && moment.Before(slot.EndTime)
}

// buildSnapshot считает производные метрики активного слота по полному
// дневному расписанию его комнаты (slots отсортированы по началу).
func buildSnapshot(active ScheduleEntry, slots []ScheduleEntry, moment, windowEnd time.Time) Snapshot {
	snap := Snapshot{ScheduleEntry: active}

	if active.Status == models.SlotFree {
		// Свободно до ближайшего занятия, начинающегося не раньше конца
		// этого слота (включительно), но не позже конца рабочего дня.
		freeUntil := windowEnd
		for _, slot := range slots {
			if slot.Status == models.SlotBusy && !slot.StartTime.Before(active.EndTime) {
				if slot.StartTime.Before(freeUntil) {
					freeUntil = slot.StartTime
				}
				break
			}
		}
		snap.FreeUntil = &freeUntil
		snap.MinutesLeft = minutesBetween(moment, freeUntil)
		snap.IsEndOfDay = freeUntil.Equal(windowEnd)
		return snap
	}

	snap.MinutesLeft = minutesBetween(moment, active.EndTime)

	// Сколько комната будет свободна после конца занятия: до начала первого
	// слота строго позже конца занятия, но не дольше конца рабочего дня.
	nextStart := windowEnd
	for _, slot := range slots {
		if slot.StartTime.After(active.EndTime) {
			if slot.StartTime.Before(nextStart) {
				nextStart = slot.StartTime
			}
			break
		}
	}
	snap.NextSlotFreeMinutes = minutesBetween(active.EndTime, nextStart)
	return snap
}

// minutesBetween — целые минуты от a до b, округление вниз, минимум ноль.
func minutesBetween(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	return int(b.Sub(a).Minutes())
}
