package entities

import (
	"time"

	"gorm.io/gorm"
)

const (
	ActionAdd           = "add"
	ActionConsume       = "consume"
	ActionWaste         = "waste"
	ActionEdit          = "edit"
	ActionDelete        = "delete"
	ActionEditHistory   = "edit_history"
	ActionDeleteHistory = "delete_history"
	ActionJoin          = "join"
	ActionLeave         = "leave"
	ActionCreate        = "create"
	ActionInvite        = "invite"
)

// ActivityLog is append-only.
type ActivityLog struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	FridgeID   string    `gorm:"type:varchar(36);index;not null" json:"fridge_id"`
	UserEmail  string    `json:"user_email"`
	ActionType string    `gorm:"type:varchar(32)" json:"action_type"`
	ItemName   string    `json:"item_name"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	newID(&a.ID)
	return nil
}

func (a ActivityLog) GetID() string { return a.ID }
