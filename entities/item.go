package entities

import (
	"time"

	"gorm.io/gorm"
)

type Item struct {
	ID        string    `gorm:"type:varchar(40);primaryKey" json:"id"`
	FridgeID  string    `gorm:"type:varchar(36);index;not null" json:"fridge_id"`
	Name      string    `gorm:"not null" json:"name"`
	Category  string    `gorm:"type:varchar(16);default:Other" json:"category"`
	Price     float64   `json:"price"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	Expiry    *Date     `gorm:"type:date" json:"expiry,omitempty"`
	Emoji     string    `json:"emoji,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	newID(&i.ID)
	return nil
}

func (i Item) GetID() string { return i.ID }
