package receipt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nomorewaste/domain"
)

const openAIBaseURL = "https://api.openai.com/v1"

type OpenAIExtractor struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewOpenAIExtractor(client *http.Client, baseURL, apiKey, model string) *OpenAIExtractor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIExtractor{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), apiKey: apiKey, model: model}
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (o *OpenAIExtractor) Extract(ctx context.Context, image []byte, today time.Time) ([]byte, error) {
	messages := []map[string]interface{}{
		{"role": "system", "content": schemaInstruction},
		{
			"role": "user",
			"content": []map[string]interface{}{
				{"type": "text", "text": datePrompt(today)},
				{
					"type": "image_url",
					"image_url": map[string]interface{}{
						"url": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
					},
				},
			},
		},
	}
	text, err := o.chat(ctx, messages, map[string]interface{}{
		"response_format": map[string]interface{}{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}
	return []byte(cleanModelText(text)), nil
}

// GenerateContent sends the text parts as one user message. Only temperature and topP are
// carried over from generationConfig.
func (o *OpenAIExtractor) GenerateContent(ctx context.Context, parts []map[string]interface{}, generationConfig map[string]interface{}) (string, error) {
	var texts []string
	for _, p := range parts {
		if t, ok := p["text"].(string); ok {
			texts = append(texts, t)
		}
	}
	extra := map[string]interface{}{}
	if v, ok := generationConfig["temperature"]; ok {
		extra["temperature"] = v
	}
	if v, ok := generationConfig["topP"]; ok {
		extra["top_p"] = v
	}
	return o.chat(ctx, []map[string]interface{}{
		{"role": "user", "content": strings.Join(texts, "\n\n")},
	}, extra)
}

func (o *OpenAIExtractor) chat(ctx context.Context, messages []map[string]interface{}, extra map[string]interface{}) (string, error) {
	requestBody := map[string]interface{}{
		"model":    o.model,
		"messages": messages,
	}
	for k, v := range extra {
		requestBody[k] = v
	}
	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewBuffer(requestJSON))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result openAIResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode != http.StatusOK {
		msg := "API request failed"
		if decodeErr == nil && result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return "", fmt.Errorf("%w: %s (%s)", domain.ErrExtractionFailed, msg, resp.Status)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decode openai response: %v", domain.ErrExtractionFailed, decodeErr)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", domain.ErrExtractionFailed)
	}
	return result.Choices[0].Message.Content, nil
}
