package timetable

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Mseymur/FH-Room-Checker/models"
)

// clientSignature — фиксированный User-Agent, по которому нас узнаёт
// администрация внешнего API.
const clientSignature = "FH-Room-Checker/1.0"

// SyncResult — явная передача результата загрузки генератору ленты в рамках
// одного цикла синхронизации. Значение живёт только в памяти процесса.
type SyncResult struct {
	BuildingCode string
	Events       []ClassEvent
	Parsed       int  // успешно разобранные события
	Skipped      int  // служебный мусор, не прошедший шаблон заголовка
	Dropped      int  // события чужих корпусов
	Changed      bool // данные отличаются от сохранённого отпечатка
}

// FetchBuilding загружает сырое расписание корпуса, сверяет отпечаток с
// сохранённым и при изменении сохраняет новые данные и разбирает события.
//
// Ошибки конфигурации и внешнего API мягкие: логируются и превращаются в
// пустой результат, прежняя лента при этом остаётся действующей. Наружу
// ошибка не выходит никогда.
func (s *Service) FetchBuilding(ctx context.Context, buildingCode string) *SyncResult {
	buildingCode = strings.ToUpper(buildingCode)
	res := &SyncResult{BuildingCode: buildingCode}
	runID := uuid.NewString()

	if s.opts.APIBaseURL == "" {
		slog.Error("Timetable API URL is not configured, skipping sync", "building", buildingCode, "run_id", runID)
		return res
	}

	body, ok := s.download(ctx, buildingCode, runID)
	if !ok {
		return res
	}

	sum := sha256.Sum256(body)
	fingerprint := hex.EncodeToString(sum[:])

	// Корпус создаётся при первой синхронизации.
	var building models.Building
	if err := s.db.WithContext(ctx).Where("code = ?", buildingCode).
		FirstOrCreate(&building, models.Building{Code: buildingCode}).Error; err != nil {
		slog.Error("Failed to upsert building", "building", buildingCode, "run_id", runID, "error", err)
		return res
	}

	// Главная гарантия эффективности: неизменившиеся данные стоят одного
	// сравнения отпечатков, без разбора и без записи.
	var stored models.RawData
	err := s.db.WithContext(ctx).Where("building_id = ?", building.ID).First(&stored).Error
	switch {
	case err == nil:
		if stored.Fingerprint == fingerprint {
			slog.Info("Timetable unchanged, skipping", "building", buildingCode, "run_id", runID)
			return res
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Первая синхронизация корпуса.
	default:
		slog.Error("Failed to read stored raw data", "building", buildingCode, "run_id", runID, "error", err)
		return res
	}

	var rawEvents []RawEvent
	if err := json.Unmarshal(body, &rawEvents); err != nil {
		// Не массив или битый JSON: отпечаток не сохраняем, чтобы следующая
		// синхронизация попробовала снова.
		slog.Error("Timetable API returned malformed payload", "building", buildingCode, "run_id", runID, "error", err)
		return res
	}

	for _, raw := range rawEvents {
		event, outcome := ParseEvent(s.matcher, raw, buildingCode, s.opts.Timezone)
		switch outcome {
		case ParseOK:
			res.Events = append(res.Events, *event)
			res.Parsed++
		case ParseWrongBuilding:
			res.Dropped++
		default:
			res.Skipped++
		}
	}

	// Перезапись сырых данных и ленивая регистрация новых комнат — одной
	// транзакцией, чтобы отпечаток не разошёлся с содержимым.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var raw models.RawData
		switch err := tx.Where("building_id = ?", building.ID).First(&raw).Error; {
		case err == nil:
			raw.Payload = body
			raw.Fingerprint = fingerprint
			if err := tx.Save(&raw).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			raw = models.RawData{BuildingID: building.ID, Payload: body, Fingerprint: fingerprint}
			if err := tx.Create(&raw).Error; err != nil {
				return err
			}
		default:
			return err
		}

		for i := range res.Events {
			ev := &res.Events[i]
			room := models.Room{
				BuildingID: building.ID,
				FullCode:   ev.RoomCode,
				Floor:      ev.Floor,
				Number:     ev.Number,
			}
			if err := tx.Where("building_id = ? AND full_code = ?", building.ID, ev.RoomCode).
				FirstOrCreate(&room).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to persist raw data", "building", buildingCode, "run_id", runID, "error", err)
		return &SyncResult{BuildingCode: buildingCode}
	}

	res.Changed = true
	if res.Dropped > 0 {
		slog.Warn("Dropped events belonging to other buildings", "building", buildingCode, "run_id", runID, "dropped", res.Dropped)
	}
	slog.Info("Timetable fetched",
		"building", buildingCode,
		"run_id", runID,
		"parsed", res.Parsed,
		"skipped", res.Skipped,
		"dropped", res.Dropped,
	)
	return res
}

// download выполняет HTTP-запрос к внешнему API и возвращает тело ответа.
// Любая сетевая или статусная проблема — мягкая ошибка.
func (s *Service) download(ctx context.Context, buildingCode, runID string) ([]byte, bool) {
	reqURL := s.opts.APIBaseURL + "?building=" + url.QueryEscape(buildingCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		slog.Error("Failed to build timetable request", "building", buildingCode, "run_id", runID, "error", err)
		return nil, false
	}
	req.Header.Set("User-Agent", clientSignature)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("Timetable API request failed", "building", buildingCode, "run_id", runID, "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("Timetable API returned non-success status", "building", buildingCode, "run_id", runID, "status", resp.StatusCode)
		return nil, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Failed to read timetable response", "building", buildingCode, "run_id", runID, "error", err)
		return nil, false
	}
	return body, true
}
