package apiclient

import (
	"context"
	"net/http"

	"nomorewaste/domain"
)

func (c *Client) GenerateRecipe(ctx context.Context, mode, prompt string) (domain.RecipeResponse, error) {
	var res domain.RecipeResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/recipes", domain.RecipeRequest{Mode: mode, Prompt: prompt}, &res)
	return res, err
}

func (c *Client) RecipeUsage(ctx context.Context) (domain.RecipeUsageResponse, error) {
	var res domain.RecipeUsageResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/recipes/usage", nil, &res)
	return res, err
}
