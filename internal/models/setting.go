package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting persists one named option bag as a single JSON blob, mirroring how
// the hosted plugin stored each settings group under one serialized option.
type Setting struct {
	Key       string         `gorm:"primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"not null" json:"value"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
