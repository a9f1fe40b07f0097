package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"nomorewaste/domain"
	"nomorewaste/entities"
)

// DefaultDailyLimit is how many recipes one member may generate per calendar day.
const DefaultDailyLimit = 2

const expiringPick = 5

var recipeCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nomorewaste",
	Subsystem: "recipe",
	Name:      "generations_total",
	Help:      "Recipe generation attempts by mode and outcome.",
}, []string{"mode", "outcome"})

type (
	// Generator is a text completion endpoint.
	Generator interface {
		GenerateContent(ctx context.Context, parts []map[string]interface{}, generationConfig map[string]interface{}) (string, error)
	}

	InventorySource interface {
		GetInventory(ctx context.Context, userID string) (domain.InventoryResponse, error)
	}

	RecipeService interface {
		GenerateRecipe(ctx context.Context, req domain.RecipeRequest, userID string) (domain.RecipeResponse, error)
		GetUsage(ctx context.Context, userID string) (domain.RecipeUsageResponse, error)
	}

	recipeService struct {
		recipeRepository RecipeRepository
		inventory        InventorySource
		generator        Generator
		limit            int
		now              func() time.Time
	}
)

func NewRecipeService(recipeRepository RecipeRepository, inventory InventorySource, generator Generator, limit int) RecipeService {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &recipeService{
		recipeRepository: recipeRepository,
		inventory:        inventory,
		generator:        generator,
		limit:            limit,
		now:              time.Now,
	}
}

func (s *recipeService) today() string {
	return s.now().UTC().Format(entities.DateLayout)
}

func (s *recipeService) GetUsage(ctx context.Context, userID string) (domain.RecipeUsageResponse, error) {
	day := s.today()
	used, err := s.recipeRepository.GetUsage(ctx, userID, day)
	if err != nil {
		return domain.RecipeUsageResponse{}, err
	}
	return domain.RecipeUsageResponse{Day: day, Used: used, Limit: s.limit, Remaining: max(s.limit-used, 0)}, nil
}

// GenerateRecipe checks the daily cap before calling out and counts the call only once it
// has succeeded. The count itself never passes the cap.
func (s *recipeService) GenerateRecipe(ctx context.Context, req domain.RecipeRequest, userID string) (domain.RecipeResponse, error) {
	if req.Mode == domain.RecipeModePrompt && strings.TrimSpace(req.Prompt) == "" {
		return domain.RecipeResponse{}, domain.ErrPromptRequired
	}
	if s.generator == nil {
		return domain.RecipeResponse{}, fmt.Errorf("%w: no recipe model configured", domain.ErrRecipeFailed)
	}

	day := s.today()
	used, err := s.recipeRepository.GetUsage(ctx, userID, day)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if used >= s.limit {
		recipeCalls.WithLabelValues(req.Mode, "limited").Inc()
		return domain.RecipeResponse{}, domain.ErrDailyLimitReached
	}

	inv, err := s.inventory.GetInventory(ctx, userID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	ingredients := pickIngredients(req.Mode, inv.Items, s.now())
	if len(ingredients) == 0 {
		return domain.RecipeResponse{}, domain.ErrNoIngredients
	}

	prompt, err := buildPrompt(req, ingredients, s.now())
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	content, err := s.generator.GenerateContent(ctx, []map[string]interface{}{{"text": prompt}}, map[string]interface{}{
		"temperature": 0.7,
		"topP":        0.8,
		"topK":        40,
	})
	if err != nil {
		recipeCalls.WithLabelValues(req.Mode, "failed").Inc()
		return domain.RecipeResponse{}, fmt.Errorf("%w: %v", domain.ErrRecipeFailed, err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		recipeCalls.WithLabelValues(req.Mode, "failed").Inc()
		return domain.RecipeResponse{}, fmt.Errorf("%w: empty response", domain.ErrRecipeFailed)
	}

	counted, err := s.recipeRepository.IncrementUsage(ctx, userID, day, s.limit)
	switch {
	case err != nil:
		// the recipe is returned even when the count cannot be stored
		log.Errorf("recipe: count usage for %s: %v", userID, err)
	case !counted:
		// another session of the same member used the last slot while this call ran
		recipeCalls.WithLabelValues(req.Mode, "limited").Inc()
		return domain.RecipeResponse{}, domain.ErrDailyLimitReached
	}
	recipeCalls.WithLabelValues(req.Mode, "ok").Inc()

	return domain.RecipeResponse{Content: content, Remaining: max(s.limit-used-1, 0)}, nil
}

// pickIngredients orders the fridge for the prompt. Expiring mode keeps the items closest
// to expiry; the other modes use everything.
func pickIngredients(mode string, items []entities.Item, now time.Time) []entities.Item {
	if mode != domain.RecipeModeExpiring {
		return items
	}
	dated := make([]entities.Item, 0, len(items))
	for _, item := range items {
		if item.Expiry != nil && !item.Expiry.IsZero() && item.Expiry.DaysUntil(now) >= 0 {
			dated = append(dated, item)
		}
	}
	if len(dated) == 0 {
		return items
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].Expiry.Before(dated[j].Expiry.Time) })
	if len(dated) > expiringPick {
		dated = dated[:expiringPick]
	}
	return dated
}

func buildPrompt(req domain.RecipeRequest, items []entities.Item, now time.Time) (string, error) {
	ingredients := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		row := map[string]interface{}{
			"name":     item.Name,
			"quantity": item.Quantity,
			"category": item.Category,
		}
		if item.Expiry != nil && !item.Expiry.IsZero() {
			row["expiryDate"] = item.Expiry.String()
			row["daysUntilExpiry"] = item.Expiry.DaysUntil(now)
		}
		ingredients = append(ingredients, row)
	}
	ingredientsJSON, err := json.Marshal(ingredients)
	if err != nil {
		return "", err
	}

	var task string
	switch req.Mode {
	case domain.RecipeModeExpiring:
		task = "Create one recipe that uses up the ingredients closest to expiry first."
	case domain.RecipeModeSurprise:
		task = "Surprise me with one creative recipe using some of these ingredients."
	default:
		task = fmt.Sprintf("Create one recipe for this request: %q. Use the available ingredients where sensible.", strings.TrimSpace(req.Prompt))
	}

	return fmt.Sprintf(
		"You are a friendly home chef helping a household waste less food. "+
			"Available ingredients (with quantities and expiry dates): %s. %s "+
			"Reply with a short title, an ingredient list and numbered steps in plain text.",
		string(ingredientsJSON), task,
	), nil
}
