package models

import "gorm.io/gorm"

// Room — одна аудитория корпуса. Создаётся лениво при первом упоминании
// в расписании; этаж и номер после создания не меняются.
type Room struct {
	gorm.Model
	BuildingID uint   `json:"building_id" gorm:"uniqueIndex:idx_rooms_code_building;not null"`
	FullCode   string `json:"full_code" gorm:"size:64;uniqueIndex:idx_rooms_code_building;not null"` // "AP152.EG.108"
	Floor      string `json:"floor" gorm:"size:16"`                                                  // "EG", "01", ...
	Number     string `json:"number" gorm:"size:16"`

	Slots []ScheduleSlot `json:"slots,omitempty" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE;"`
}
