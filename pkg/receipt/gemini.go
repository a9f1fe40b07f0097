package receipt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nomorewaste/domain"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GeminiExtractor struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewGeminiExtractor(client *http.Client, baseURL, apiKey, model string) *GeminiExtractor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	return &GeminiExtractor{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), apiKey: apiKey, model: model}
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateContent posts parts to the model and returns the text of the first candidate.
func (g *GeminiExtractor) GenerateContent(ctx context.Context, parts []map[string]interface{}, generationConfig map[string]interface{}) (string, error) {
	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": parts},
		},
		"generationConfig": generationConfig,
	}
	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return "", err
	}

	geminiURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, geminiURL, bytes.NewBuffer(requestJSON))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: gemini API error: %s - %s", domain.ErrExtractionFailed, resp.Status, string(bodyBytes))
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("%w: decode gemini response: %v", domain.ErrExtractionFailed, err)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: gemini returned no candidates", domain.ErrExtractionFailed)
	}
	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

func (g *GeminiExtractor) Extract(ctx context.Context, image []byte, today time.Time) ([]byte, error) {
	parts := []map[string]interface{}{
		{"text": schemaInstruction + "\n\n" + datePrompt(today)},
		{
			"inline_data": map[string]interface{}{
				"mime_type": "image/jpeg",
				"data":      base64.StdEncoding.EncodeToString(image),
			},
		},
	}
	text, err := g.GenerateContent(ctx, parts, map[string]interface{}{
		"temperature":      0.1,
		"topP":             0.8,
		"topK":             40,
		"responseMimeType": "application/json",
	})
	if err != nil {
		return nil, err
	}
	return []byte(cleanModelText(text)), nil
}
