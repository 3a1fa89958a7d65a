// Пакет timetable содержит ядро системы: загрузку сырого расписания с
// детекцией изменений, разбор событий, генерацию сплошной FREE/BUSY-ленты
// по комнатам и вычисление доступности на момент времени.
package timetable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrBuildingNotInitialized означает, что по корпусу нет сохранённых данных
// даже после попытки синхронизации. Для вызывающего это отдельный сигнал
// "нет данных", а не пустой список свободных комнат.
var ErrBuildingNotInitialized = errors.New("no timetable data for building")

// Options — настройки ядра, передаются из конфигурации при старте.
type Options struct {
	APIBaseURL   string
	Timezone     *time.Location
	WindowStart  time.Duration // начало рабочего окна, смещение от полуночи
	WindowEnd    time.Duration // конец рабочего окна
	FetchTimeout time.Duration
}

// Service связывает хранилище, кэш и HTTP-клиент внешнего API.
// Кэш (rdb) может быть nil — тогда дневные расписания не кэшируются.
type Service struct {
	db      *gorm.DB
	rdb     *redis.Client
	client  *http.Client
	matcher TitleMatcher
	opts    Options
}

func NewService(db *gorm.DB, rdb *redis.Client, opts Options) *Service {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 8 * time.Second
	}
	if opts.Timezone == nil {
		opts.Timezone = time.Local
	}
	return &Service{
		db:      db,
		rdb:     rdb,
		client:  &http.Client{Timeout: opts.FetchTimeout},
		matcher: NewTitleMatcher(),
		opts:    opts,
	}
}

// SyncBuilding — идемпотентная синхронизация одного корпуса: загрузка с
// детекцией изменений и, если данные изменились, перегенерация ленты.
// Безопасно вызывать с любой частотой; неизменившиеся данные стоят одного
// сравнения отпечатков.
func (s *Service) SyncBuilding(ctx context.Context, buildingCode string) (events, slots int, err error) {
	res := s.FetchBuilding(ctx, buildingCode)
	if !res.Changed {
		return res.Parsed, 0, nil
	}

	slots, err = s.GenerateTimeline(ctx, buildingCode, res)
	if err != nil {
		return res.Parsed, 0, fmt.Errorf("regenerate timeline for %s: %w", buildingCode, err)
	}
	return res.Parsed, slots, nil
}

// midnight — начало календарного дня момента t в фиксированной таймзоне.
func (s *Service) midnight(t time.Time) time.Time {
	t = t.In(s.opts.Timezone)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.opts.Timezone)
}

// windowOnDay возвращает границы рабочего окна для календарного дня момента t.
func (s *Service) windowOnDay(t time.Time) (start, end time.Time) {
	midnight := s.midnight(t)
	return midnight.Add(s.opts.WindowStart), midnight.Add(s.opts.WindowEnd)
}

// dayKey — календарная дата момента в фиксированной таймзоне.
func (s *Service) dayKey(t time.Time) string {
	return t.In(s.opts.Timezone).Format("2006-01-02")
}

func scheduleCacheKey(buildingCode, day string) string {
	return "schedule:" + buildingCode + ":" + day
}

// invalidateScheduleCache удаляет закэшированные дневные расписания корпуса
// за перегенерированные дни. Ошибки кэша не фатальны.
func (s *Service) invalidateScheduleCache(ctx context.Context, buildingCode string, days []string) {
	if s.rdb == nil || len(days) == 0 {
		return
	}
	keys := make([]string, 0, len(days))
	for _, day := range days {
		keys = append(keys, scheduleCacheKey(buildingCode, day))
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("Failed to invalidate schedule cache", "building", buildingCode, "error", err)
	}
}
