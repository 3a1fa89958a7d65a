package timetable

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// UnknownTeacher подставляется, когда в заголовке события нет имени преподавателя.
const UnknownTeacher = "Unknown"

// RawEvent — одно событие внешнего API расписаний, как оно приходит по HTTP.
// Идентификатор и даты приходят в нестрогом виде, поэтому разбираются мягко.
type RawEvent struct {
	ID        FlexibleID `json:"id"`
	Title     string     `json:"title"`
	Start     string     `json:"start"`
	End       string     `json:"end"`
	ClassName string     `json:"className"`
	Color     string     `json:"color"`
}

// FlexibleID принимает идентификатор события и как число, и как строку.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

// ClassEvent — распознанное событие занятия, привязанное к конкретной комнате.
type ClassEvent struct {
	ExternalID string
	RoomCode   string // "AP152.EG.108"
	Floor      string
	Number     string
	Title      string
	Teacher    string
	ClassName  string
	Color      string
	Start      time.Time
	End        time.Time
}

// TitleFields — структурные поля, извлечённые из заголовка события.
type TitleFields struct {
	BuildingCode string // "AP152"
	RoomCode     string // "AP152.EG.108"
	Floor        string // "EG"
	Number       string // "108"
	matchedLen   int    // длина распознанного префикса в заголовке
}

// TitleMatcher извлекает поля комнаты из полусвободного заголовка события.
// Интерфейс узкий намеренно: стратегию разбора (регулярка, токенизатор)
// можно менять, не трогая вызывающий код.
type TitleMatcher interface {
	Match(title string) (TitleFields, bool)
}

// Заголовок начинается с кода корпуса (буквы + три цифры), затем пробелы и
// полный код комнаты, первый сегмент которого повторяет код корпуса:
// "AP152 AP152.EG.108 Mathematik 1 (VO), Mustermann Max".
// RE2 не поддерживает обратные ссылки, поэтому совпадение токенов
// проверяется отдельно в Match.
var titlePattern = regexp.MustCompile(`^([A-Za-z]+[0-9]{3})\s+([A-Za-z]+[0-9]{3})\.([^.\s,()]+)\.([^.\s,()]+)`)

type regexTitleMatcher struct{}

// NewTitleMatcher возвращает матчер заголовков на основе регулярного выражения.
func NewTitleMatcher() TitleMatcher {
	return regexTitleMatcher{}
}

func (regexTitleMatcher) Match(title string) (TitleFields, bool) {
	m := titlePattern.FindStringSubmatch(title)
	if m == nil {
		return TitleFields{}, false
	}
	// Первый сегмент кода комнаты обязан повторять код корпуса.
	if !strings.EqualFold(m[1], m[2]) {
		return TitleFields{}, false
	}
	return TitleFields{
		BuildingCode: strings.ToUpper(m[1]),
		RoomCode:     strings.ToUpper(m[2]) + "." + m[3] + "." + m[4],
		Floor:        m[3],
		Number:       m[4],
		matchedLen:   len(m[0]),
	}, true
}

// ParseOutcome — результат разбора одного сырого события.
type ParseOutcome int

const (
	// ParseOK — событие распознано и относится к запрошенному корпусу.
	ParseOK ParseOutcome = iota
	// ParseSkipped — заголовок или даты не соответствуют ожиданиям
	// (служебный мусор), событие молча отбрасывается.
	ParseSkipped
	// ParseWrongBuilding — событие другого корпуса, отбрасывается и считается.
	ParseWrongBuilding
)

// ParseEvent превращает сырое событие в ClassEvent для запрошенного корпуса.
// Моменты времени разбираются в переданной таймзоне. Функция чистая:
// регистрация комнат — забота вызывающего кода.
func ParseEvent(matcher TitleMatcher, raw RawEvent, buildingCode string, loc *time.Location) (*ClassEvent, ParseOutcome) {
	fields, ok := matcher.Match(raw.Title)
	if !ok {
		return nil, ParseSkipped
	}
	if !strings.EqualFold(fields.BuildingCode, buildingCode) {
		return nil, ParseWrongBuilding
	}

	start, okStart := parseInstant(raw.Start, loc)
	end, okEnd := parseInstant(raw.End, loc)
	if !okStart || !okEnd || !end.After(start) {
		return nil, ParseSkipped
	}

	title, teacher := splitTitle(raw.Title, fields.matchedLen)

	return &ClassEvent{
		ExternalID: string(raw.ID),
		RoomCode:   fields.RoomCode,
		Floor:      fields.Floor,
		Number:     fields.Number,
		Title:      title,
		Teacher:    teacher,
		ClassName:  raw.ClassName,
		Color:      raw.Color,
		Start:      start,
		End:        end,
	}, ParseOK
}

// parseInstant принимает метки времени API: RFC3339 либо "naive"
// локальное время без зоны.
func parseInstant(value string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), true
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// splitTitle выделяет короткое название занятия и имя преподавателя.
// Часть до первой запятой (без распознанного префикса с кодами и без
// скобок с типом занятия) — название; часть после запятой — преподаватель.
func splitTitle(title string, matchedLen int) (short, teacher string) {
	rest := title[matchedLen:]

	teacher = UnknownTeacher
	if idx := strings.Index(rest, ","); idx >= 0 {
		if t := strings.TrimSpace(rest[idx+1:]); t != "" {
			teacher = t
		}
		rest = rest[:idx]
	}

	if idx := strings.Index(rest, "("); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest), teacher
}
