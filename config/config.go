package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig хранит все настройки приложения, прочитанные из окружения.
// Обязательна только DB_URL, остальное имеет разумные значения по умолчанию.
type AppConfig struct {
	Port             string
	TimetableAPIURL  string
	AllowedBuildings []string
	Timezone         *time.Location
	// Границы рабочего дня как смещение от полуночи (в локальной таймзоне).
	DayWindowStart time.Duration
	DayWindowEnd   time.Duration
	FetchTimeout   time.Duration
	SyncCron       string
}

var App *AppConfig

// LoadConfig читает .env (если есть) и переменные окружения.
// При некорректных критичных настройках приложение завершается.
func LoadConfig() {
	if err := godotenv.Load(".env"); err == nil {
		slog.Info("Loaded configuration from .env file")
	}

	tzName := envOrDefault("TZ_NAME", "Europe/Vienna")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		slog.Error("Invalid TZ_NAME, cannot continue", "tz", tzName, "error", err)
		os.Exit(1)
	}

	cfg := &AppConfig{
		Port:            envOrDefault("PORT", "8080"),
		TimetableAPIURL: os.Getenv("TIMETABLE_API_URL"),
		Timezone:        loc,
		DayWindowStart:  mustParseDayTime("DAY_WINDOW_START", "08:00"),
		DayWindowEnd:    mustParseDayTime("DAY_WINDOW_END", "18:15"),
		FetchTimeout:    time.Duration(envInt("FETCH_TIMEOUT_SECONDS", 8)) * time.Second,
		SyncCron:        envOrDefault("SYNC_CRON", "*/30 6-20 * * *"),
	}

	// Список разрешённых корпусов, например "AP152,AP147,EA442".
	// Коды нормализуются в верхний регистр один раз при загрузке.
	for _, code := range strings.Split(os.Getenv("ALLOWED_BUILDINGS"), ",") {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			cfg.AllowedBuildings = append(cfg.AllowedBuildings, code)
		}
	}

	if cfg.DayWindowEnd <= cfg.DayWindowStart {
		slog.Error("DAY_WINDOW_END must be after DAY_WINDOW_START")
		os.Exit(1)
	}

	App = cfg
	slog.Info("Configuration loaded",
		"buildings", len(cfg.AllowedBuildings),
		"timezone", tzName,
		"window_start", formatDayTime(cfg.DayWindowStart),
		"window_end", formatDayTime(cfg.DayWindowEnd),
	)
}

// IsBuildingAllowed проверяет код корпуса по списку (без учёта регистра).
func (c *AppConfig) IsBuildingAllowed(code string) bool {
	for _, allowed := range c.AllowedBuildings {
		if strings.EqualFold(allowed, code) {
			return true
		}
	}
	return false
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

// mustParseDayTime разбирает время вида "HH:MM" в смещение от полуночи.
func mustParseDayTime(key, def string) time.Duration {
	raw := envOrDefault(key, def)
	t, err := time.Parse("15:04", raw)
	if err != nil {
		slog.Error("Invalid day-window time, expected HH:MM", "key", key, "value", raw, "error", err)
		os.Exit(1)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

func formatDayTime(d time.Duration) string {
	return time.Time{}.Add(d).Format("15:04")
}
