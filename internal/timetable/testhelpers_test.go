package timetable

import (
	"sort"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Mseymur/FH-Room-Checker/models"
)

// newTestService поднимает сервис поверх sqlite в памяти с рабочим окном
// 08:00–18:15 в фиксированной таймзоне.
func newTestService(t *testing.T, apiURL string) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Building{},
		&models.Room{},
		&models.RawData{},
		&models.ScheduleSlot{},
	))

	return NewService(db, nil, Options{
		APIBaseURL:   apiURL,
		Timezone:     testLocation(t),
		WindowStart:  8 * time.Hour,
		WindowEnd:    18*time.Hour + 15*time.Minute,
		FetchTimeout: 2 * time.Second,
	})
}

func testLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Vienna")
	require.NoError(t, err)
	return loc
}

// seedBuilding создаёт корпус с комнатами и возвращает их.
func seedBuilding(t *testing.T, s *Service, code string, roomCodes ...string) (models.Building, []models.Room) {
	t.Helper()

	building := models.Building{Code: code}
	require.NoError(t, s.db.Create(&building).Error)

	rooms := make([]models.Room, 0, len(roomCodes))
	for _, rc := range roomCodes {
		room := models.Room{BuildingID: building.ID, FullCode: rc, Floor: "EG", Number: rc}
		require.NoError(t, s.db.Create(&room).Error)
		rooms = append(rooms, room)
	}
	return building, rooms
}

// assertPartition проверяет закон разбиения: слоты комнаты за день, будучи
// отсортированы по началу, сплошь покрывают рабочее окно без дыр и
// пересечений.
func assertPartition(t *testing.T, slots []models.ScheduleSlot, winStart, winEnd time.Time) {
	t.Helper()
	require.NotEmpty(t, slots)

	sorted := make([]models.ScheduleSlot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	require.True(t, sorted[0].StartTime.Equal(winStart),
		"first slot must start at window start, got %s", sorted[0].StartTime)
	last := sorted[len(sorted)-1]
	require.False(t, last.EndTime.Before(winEnd),
		"last slot must reach window end, got %s", last.EndTime)

	for i := 0; i < len(sorted)-1; i++ {
		require.True(t, sorted[i].EndTime.Equal(sorted[i+1].StartTime),
			"slot %d end %s != slot %d start %s",
			i, sorted[i].EndTime, i+1, sorted[i+1].StartTime)
	}
}
