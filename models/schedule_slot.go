package models

import "time"

// Статусы слота расписания.
const (
	SlotFree = "FREE"
	SlotBusy = "BUSY"
)

// ScheduleSlot — непрерывный интервал FREE или BUSY одной комнаты.
//
// Инвариант (на комнату и календарный день): слоты, отсортированные по
// StartTime, полностью покрывают рабочее окно дня без дыр и пересечений —
// конец каждого слота равен началу следующего, первый начинается на границе
// окна, последний на ней заканчивается.
//
// Слоты не редактируются по одному: генератор расписания каждый раз удаляет
// старые строки комнаты за день и вставляет новые, поэтому мягкое удаление
// здесь не нужно.
type ScheduleSlot struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"-"`

	RoomID    uint      `json:"room_id" gorm:"index:idx_slots_room_start;not null"`
	Status    string    `json:"status" gorm:"size:8;not null"`
	StartTime time.Time `json:"start_time" gorm:"index:idx_slots_room_start;not null"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`

	// Заполняются только для BUSY-слотов.
	Title      string `json:"title,omitempty" gorm:"size:255"`
	Teacher    string `json:"teacher,omitempty" gorm:"size:255"`
	ClassName  string `json:"class_name,omitempty" gorm:"size:255"`
	ExternalID string `json:"external_id,omitempty" gorm:"size:64"`
	Color      string `json:"color,omitempty" gorm:"size:32"`
}
