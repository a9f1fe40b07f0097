package entities

import (
	"time"

	"gorm.io/gorm"
)

// LogEntry is the part of an item split off into a history collection.
// Quantity is the amount removed by that single operation.
type LogEntry struct {
	ID       string  `gorm:"type:varchar(40);primaryKey" json:"id"`
	FridgeID string  `gorm:"type:varchar(36);index;not null" json:"fridge_id"`
	Name     string  `gorm:"not null" json:"name"`
	Category string  `gorm:"type:varchar(16);default:Other" json:"category"`
	Price    float64 `json:"price"`
	Quantity int     `gorm:"not null" json:"quantity"`
}

type WasteLog struct {
	LogEntry
	WastedAt time.Time `gorm:"index" json:"wasted_at"`
}

func (w *WasteLog) BeforeCreate(tx *gorm.DB) error {
	newID(&w.ID)
	return nil
}

func (w WasteLog) GetID() string { return w.ID }

type ConsumedLog struct {
	LogEntry
	ConsumedAt time.Time `gorm:"index" json:"consumed_at"`
}

func (c *ConsumedLog) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

func (c ConsumedLog) GetID() string { return c.ID }
