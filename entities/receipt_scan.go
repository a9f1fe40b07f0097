package entities

import "gorm.io/gorm"

const (
	ScanPending   = "Pending"
	ScanProcessed = "Processed"
	ScanFailed    = "Failed"
)

type ReceiptScan struct {
	ID        string `gorm:"type:varchar(36);primaryKey" json:"id"`
	FridgeID  string `gorm:"type:varchar(36);index" json:"fridge_id"`
	UserID    string `gorm:"type:varchar(64)" json:"user_id"`
	ImageKey  string `json:"image_key,omitempty"`
	Status    string `gorm:"type:varchar(16)" json:"status"` // "Pending", "Processed", "Failed"
	ItemCount int    `json:"item_count"`
	Error     string `gorm:"type:text" json:"error,omitempty"`
	Timestamp
}

func (r *ReceiptScan) BeforeCreate(tx *gorm.DB) error {
	newID(&r.ID)
	return nil
}
