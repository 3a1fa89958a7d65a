package timetable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mseymur/FH-Room-Checker/models"
)

// seedSlots вставляет слоты комнаты напрямую, минуя генератор.
func seedSlots(t *testing.T, s *Service, roomID uint, slots ...models.ScheduleSlot) {
	t.Helper()
	for i := range slots {
		slots[i].RoomID = roomID
	}
	require.NoError(t, s.db.Create(&slots).Error)
}

func free(start, end time.Time) models.ScheduleSlot {
	return models.ScheduleSlot{Status: models.SlotFree, StartTime: start, EndTime: end}
}

func busy(start, end time.Time, title string) models.ScheduleSlot {
	return models.ScheduleSlot{
		Status: models.SlotBusy, StartTime: start, EndTime: end,
		Title: title, Teacher: "Mustermann Max", ExternalID: "1",
	}
}

func TestResolveMoment(t *testing.T) {
	s := newTestService(t, "")
	loc := s.opts.Timezone

	t.Run("дата и время в фиксированной таймзоне", func(t *testing.T) {
		m := s.ResolveMoment("2026-09-14", "10:30")
		assert.True(t, m.Equal(time.Date(2026, 9, 14, 10, 30, 0, 0, loc)))
	})

	t.Run("время с секундами", func(t *testing.T) {
		m := s.ResolveMoment("2026-09-14", "10:30:45")
		assert.True(t, m.Equal(time.Date(2026, 9, 14, 10, 30, 45, 0, loc)))
	})

	t.Run("дата без времени — начало рабочего окна", func(t *testing.T) {
		m := s.ResolveMoment("2026-09-14", "")
		assert.True(t, m.Equal(time.Date(2026, 9, 14, 8, 0, 0, 0, loc)))
	})

	t.Run("пустой запрос — текущий момент", func(t *testing.T) {
		m := s.ResolveMoment("", "")
		assert.WithinDuration(t, time.Now().In(loc), m, 2*time.Second)
	})

	t.Run("нечитаемая дата деградирует к текущему моменту", func(t *testing.T) {
		m := s.ResolveMoment("morgen", "10:00")
		assert.WithinDuration(t, time.Now().In(loc), m, 2*time.Second)
	})

	t.Run("нечитаемое время деградирует к текущему моменту", func(t *testing.T) {
		m := s.ResolveMoment("2026-09-14", "viertel nach zehn")
		assert.WithinDuration(t, time.Now().In(loc), m, 2*time.Second)
	})
}

func TestSnapshotHalfOpenBoundary(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, "")
	_, rooms := seedBuilding(t, s, "AP152", "AP152.EG.108")
	loc := s.opts.Timezone
	hm := func(h, m, sec int) time.Time { return time.Date(2026, 9, 14, h, m, sec, 0, loc) }

	seedSlots(t, s, rooms[0].ID,
		free(hm(8, 0, 0), hm(10, 0, 0)),
		busy(hm(10, 0, 0), hm(11, 0, 0), "Mathematik 1"),
		free(hm(11, 0, 0), hm(18, 15, 0)),
	)

	tests := []struct {
		name       string
		moment     time.Time
		wantStatus string
		wantStart  time.Time
	}{
		{"ровно на границе — начинающийся слот", hm(10, 0, 0), models.SlotBusy, hm(10, 0, 0)},
		{"последняя секунда занятия", hm(10, 59, 59), models.SlotBusy, hm(10, 0, 0)},
		{"конец занятия принадлежит следующему слоту", hm(11, 0, 0), models.SlotFree, hm(11, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snaps, err := s.SnapshotAt(ctx, "AP152", tt.moment)
			require.NoError(t, err)
			require.Len(t, snaps, 1)
			assert.Equal(t, tt.wantStatus, snaps[0].Status)
			assert.True(t, snaps[0].StartTime.Equal(tt.wantStart))
		})
	}
}

func TestSnapshotFreeMetrics(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, "")
	_, rooms := seedBuilding(t, s, "AP152", "AP152.EG.108")
	loc := s.opts.Timezone
	hm := func(h, m int) time.Time { return time.Date(2026, 9, 14, h, m, 0, 0, loc) }

	seedSlots(t, s, rooms[0].ID,
		free(hm(8, 0), hm(11, 0)),
		busy(hm(11, 0), hm(12, 0), "Mathematik 1"),
		free(hm(12, 0), hm(18, 15)),
	)

	t.Run("свободно до следующего занятия", func(t *testing.T) {
		snaps, err := s.SnapshotAt(ctx, "AP152", hm(9, 0))
		require.NoError(t, err)
		require.Len(t, snaps, 1)

		snap := snaps[0]
		assert.Equal(t, models.SlotFree, snap.Status)
		require.NotNil(t, snap.FreeUntil)
		assert.True(t, snap.FreeUntil.Equal(hm(11, 0)))
		assert.Equal(t, 120, snap.MinutesLeft)
		assert.False(t, snap.IsEndOfDay)
	})

	t.Run("последняя свободная полоса — конец дня", func(t *testing.T) {
		snaps, err := s.SnapshotAt(ctx, "AP152", hm(13, 0))
		require.NoError(t, err)
		require.Len(t, snaps, 1)

		snap := snaps[0]
		assert.Equal(t, models.SlotFree, snap.Status)
		require.NotNil(t, snap.FreeUntil)
		assert.True(t, snap.FreeUntil.Equal(hm(18, 15)))
		assert.Equal(t, 315, snap.MinutesLeft)
		assert.True(t, snap.IsEndOfDay)
	})
}

func TestSnapshotEndOfDayFlag(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, "")
	_, rooms := seedBuilding(t, s, "AP152", "AP152.EG.108")
	loc := s.opts.Timezone
	hm := func(h, m int) time.Time { return time.Date(2026, 9, 14, h, m, 0, 0, loc) }

	seedSlots(t, s, rooms[0].ID,
		busy(hm(8, 0), hm(9, 0), "Frühvorlesung"),
		free(hm(9, 0), hm(18, 15)),
	)

	snaps, err := s.SnapshotAt(ctx, "AP152", hm(10, 0))
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	snap := snaps[0]
	assert.Equal(t, models.SlotFree, snap.Status)
	require.NotNil(t, snap.FreeUntil)
	assert.True(t, snap.FreeUntil.Equal(hm(18, 15)))
	assert.True(t, snap.IsEndOfDay)
	assert.Equal(t, 495, snap.MinutesLeft)
}

func TestSnapshotBusyMetrics(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, "")
	_, rooms := seedBuilding(t, s, "AP152", "AP152.EG.108")
	loc := s.opts.Timezone
	hm := func(h, m int) time.Time { return time.Date(2026, 9, 14, h, m, 0, 0, loc) }

	seedSlots(t, s, rooms[0].ID,
		busy(hm(8, 0), hm(9, 0), "Frühvorlesung"),
		free(hm(9, 0), hm(11, 0)),
		busy(hm(11, 0), hm(12, 0), "Mathematik 1"),
		free(hm(12, 0), hm(18, 15)),
	)

	t.Run("минуты до конца занятия и свободное окно после", func(t *testing.T) {
		snaps, err := s.SnapshotAt(ctx, "AP152", hm(8, 30))
		require.NoError(t, err)
		require.Len(t, snaps, 1)

		snap := snaps[0]
		assert.Equal(t, models.SlotBusy, snap.Status)
		assert.Equal(t, "Frühvorlesung", snap.Title)
		assert.Equal(t, 30, snap.MinutesLeft)
		// После конца в 09:00 комната свободна до 11:00.
		assert.Equal(t, 120, snap.NextSlotFreeMinutes)
	})

	t.Run("последнее занятие — свободное окно до конца дня", func(t *testing.T) {
		snaps, err := s.SnapshotAt(ctx, "AP152", hm(11, 30))
		require.NoError(t, err)
		require.Len(t, snaps, 1)

		snap := snaps[0]
		assert.Equal(t, models.SlotBusy, snap.Status)
		assert.Equal(t, 30, snap.MinutesLeft)
		// За BUSY следует FREE[12:00,18:15): первый слот строго позже
		// конца занятия начинается только в 18:15 (его нет — берётся
		// конец рабочего дня).
		assert.Equal(t, 375, snap.NextSlotFreeMinutes)
	})
}

func TestDayScheduleOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, "")
	building, _ := seedBuilding(t, s, "AP152")
	loc := s.opts.Timezone
	hm := func(h, m int) time.Time { return time.Date(2026, 9, 14, h, m, 0, 0, loc) }

	// Комнаты специально создаются не по порядку.
	og := models.Room{BuildingID: building.ID, FullCode: "AP152.01.205", Floor: "01", Number: "205"}
	eg1 := models.Room{BuildingID: building.ID, FullCode: "AP152.EG.110", Floor: "EG", Number: "110"}
	eg2 := models.Room{BuildingID: building.ID, FullCode: "AP152.EG.108", Floor: "EG", Number: "108"}
	require.NoError(t, s.db.Create(&og).Error)
	require.NoError(t, s.db.Create(&eg1).Error)
	require.NoError(t, s.db.Create(&eg2).Error)

	for _, room := range []models.Room{og, eg1, eg2} {
		seedSlots(t, s, room.ID, free(hm(8, 0), hm(18, 15)))
	}

	entries, err := s.DaySchedule(ctx, "AP152", hm(10, 0))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Этаж, затем номер комнаты, затем начало слота.
	assert.Equal(t, "AP152.01.205", entries[0].RoomCode)
	assert.Equal(t, "AP152.EG.108", entries[1].RoomCode)
	assert.Equal(t, "AP152.EG.110", entries[2].RoomCode)
}

func TestDayScheduleNotAvailable(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, "")
	loc := s.opts.Timezone
	moment := time.Date(2026, 9, 14, 10, 0, 0, 0, loc)

	t.Run("корпус не существует", func(t *testing.T) {
		_, err := s.DaySchedule(ctx, "AP152", moment)
		assert.ErrorIs(t, err, ErrBuildingNotInitialized)
	})

	t.Run("корпус без слотов на дату", func(t *testing.T) {
		seedBuilding(t, s, "AP152", "AP152.EG.108")
		_, err := s.DaySchedule(ctx, "AP152", moment)
		assert.ErrorIs(t, err, ErrBuildingNotInitialized)
	})
}
