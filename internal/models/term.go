package models

import "time"

// Term is a taxonomy entry an open call links to. Open calls reference terms
// by id; the repair path matches by name for calls saved without one.
type Term struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}
