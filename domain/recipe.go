package domain

import "errors"

const (
	RecipeModeExpiring = "expiring"
	RecipeModeSurprise = "surprise"
	RecipeModePrompt   = "prompt"
)

var (
	MessageSuccessGenerateRecipe = "recipe generated successfully"
	MessageSuccessGetUsage       = "recipe usage retrieved successfully"

	MessageFailedGenerateRecipe = "failed to generate recipe"
	MessageFailedGetUsage       = "failed to retrieve recipe usage"

	ErrDailyLimitReached = errors.New("daily AI chef limit reached, come back tomorrow")
	ErrNoIngredients     = errors.New("no ingredients in the fridge")
	ErrPromptRequired    = errors.New("prompt is required for this mode")
	ErrRecipeFailed      = errors.New("recipe generation failed")
)

type (
	RecipeRequest struct {
		Mode   string `json:"mode" validate:"required,oneof=expiring surprise prompt"`
		Prompt string `json:"prompt" validate:"max=500"`
	}

	RecipeResponse struct {
		Content   string `json:"content"`
		Remaining int    `json:"remaining"`
	}

	RecipeUsageResponse struct {
		Day       string `json:"day"`
		Used      int    `json:"used"`
		Limit     int    `json:"limit"`
		Remaining int    `json:"remaining"`
	}
)
