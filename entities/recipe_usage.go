package entities

import "gorm.io/gorm"

// RecipeUsage counts recipe generations per member per calendar day (YYYY-MM-DD).
type RecipeUsage struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID string `gorm:"type:varchar(64);uniqueIndex:idx_recipe_usage_user_day;not null" json:"user_id"`
	Day    string `gorm:"type:varchar(10);uniqueIndex:idx_recipe_usage_user_day;not null" json:"day"`
	Count  int    `gorm:"not null;default:0" json:"count"`
}

func (r *RecipeUsage) BeforeCreate(tx *gorm.DB) error {
	newID(&r.ID)
	return nil
}
