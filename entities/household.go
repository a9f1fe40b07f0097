package entities

import (
	"time"

	"gorm.io/gorm"
)

// Household is the sharing boundary; every item and history row belongs to exactly one.
type Household struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name             string     `gorm:"not null" json:"name"`
	InviteCode       *string    `gorm:"type:varchar(16);uniqueIndex" json:"invite_code,omitempty"`
	InviteCodeExpiry *time.Time `json:"invite_code_expiry,omitempty"`

	Members []Member `gorm:"foreignKey:FridgeID" json:"members,omitempty"`
	Timestamp
}

func (h *Household) BeforeCreate(tx *gorm.DB) error {
	newID(&h.ID)
	return nil
}

// Member links a user identity to one household. UserID is unique, so a second
// membership fails at insert time.
type Member struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"user_id"`
	FridgeID  string    `gorm:"type:varchar(36);index;not null" json:"fridge_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (Member) TableName() string {
	return "fridge_members"
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	newID(&m.ID)
	return nil
}
