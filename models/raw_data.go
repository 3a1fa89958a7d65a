package models

import "gorm.io/gorm"

// RawData хранит последний сырой ответ внешнего API расписаний для корпуса
// вместе с его отпечатком (SHA-256). Запись одна на корпус и перезаписывается
// при каждом обнаруженном изменении; история не ведётся.
//
// Инвариант: Fingerprint всегда соответствует Payload.
type RawData struct {
	gorm.Model
	BuildingID  uint   `json:"building_id" gorm:"uniqueIndex;not null"`
	Payload     []byte `json:"-" gorm:"type:bytea"`
	Fingerprint string `json:"fingerprint" gorm:"size:64;not null"`
}
