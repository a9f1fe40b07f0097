package receipt

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"nomorewaste/entities"
	"nomorewaste/internal/utils"
)

// Extractor sends one downscaled JPEG to a structured-extraction service and returns the
// raw structured payload it produced.
type Extractor interface {
	Extract(ctx context.Context, image []byte, today time.Time) ([]byte, error)
}

// Model is a provider that can also answer plain text prompts.
type Model interface {
	Extractor
	GenerateContent(ctx context.Context, parts []map[string]interface{}, generationConfig map[string]interface{}) (string, error)
}

const schemaInstruction = "You are a grocery receipt parser. Extract every purchased line item into a JSON object " +
	"with an \"items\" array. For each item include: 'name' (string), 'price' (number), 'quantity' (integer, default 1), " +
	"'category' (one of Produce, Dairy, Meat, Beverage, Pantry, Bakery, Frozen, Other), " +
	"'expiry' (estimate YYYY-MM-DD based on today's date) and 'emoji' (a single representative emoji). " +
	"Return ONLY valid JSON with no additional text."

func datePrompt(today time.Time) string {
	return fmt.Sprintf("Parse this receipt. Today is %s.", today.Format(entities.DateLayout))
}

var jsonPattern = regexp.MustCompile(`(?s)[\[{].*[\]}]`)

// cleanModelText strips markdown fences and chatter around the JSON body of a model reply.
func cleanModelText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	if m := jsonPattern.FindString(text); m != "" {
		text = m
	}
	return strings.TrimSpace(text)
}

// NewModelFromConfig picks the provider named by EXTRACTION_PROVIDER.
func NewModelFromConfig() (Model, error) {
	client := &http.Client{Timeout: 60 * time.Second}
	switch provider := utils.GetConfig("EXTRACTION_PROVIDER"); provider {
	case "gemini":
		key := utils.GetConfig("GEMINI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
		return NewGeminiExtractor(client, "", key, utils.GetConfig("GEMINI_MODEL")), nil
	case "openai":
		key := utils.GetConfig("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		return NewOpenAIExtractor(client, "", key, utils.GetConfig("OPENAI_MODEL")), nil
	default:
		return nil, fmt.Errorf("unknown extraction provider %q", provider)
	}
}
