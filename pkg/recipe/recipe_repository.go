package recipe

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nomorewaste/entities"
)

type (
	RecipeRepository interface {
		GetUsage(ctx context.Context, userID, day string) (int, error)
		// IncrementUsage upserts the (user, day) counter unless it has already reached
		// limit. It reports whether the counter moved.
		IncrementUsage(ctx context.Context, userID, day string, limit int) (bool, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) GetUsage(ctx context.Context, userID, day string) (int, error) {
	var usage entities.RecipeUsage
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		First(&usage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return usage.Count, nil
}

func (r *recipeRepository) IncrementUsage(ctx context.Context, userID, day string, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	usage := entities.RecipeUsage{UserID: userID, Day: day, Count: 1}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count": gorm.Expr("recipe_usages.count + 1"),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("recipe_usages.count < ?", limit),
		}},
	}).Create(&usage)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
