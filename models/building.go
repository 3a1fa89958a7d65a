package models

import "gorm.io/gorm"

// Building представляет учебный корпус, например "AP152".
// Корпус создаётся при первой синхронизации и в штатном режиме не удаляется.
type Building struct {
	gorm.Model
	Code string `json:"code" gorm:"size:16;uniqueIndex;not null"`

	// Корпус владеет комнатами и последним сырым ответом API;
	// при удалении корпуса всё это удаляется каскадно.
	Rooms   []Room   `json:"rooms,omitempty" gorm:"foreignKey:BuildingID;constraint:OnDelete:CASCADE;"`
	RawData *RawData `json:"-" gorm:"foreignKey:BuildingID;constraint:OnDelete:CASCADE;"`
}
