package receipt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomorewaste/domain"
)

func TestGeminiExtractor_Extract(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` +
			"```json\\n" + `{\"items\":[{\"name\":\"Bread\",\"price\":3.2}]}` + "\\n```" + `"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGeminiExtractor(srv.Client(), srv.URL, "secret", "gemini-test")
	payload, err := g.Extract(context.Background(), []byte{0xff, 0xd8}, time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"name":"Bread","price":3.2}]}`, string(payload))

	contents := body["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].(map[string]any)["text"], "Today is 2025-01-03.")
	inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
	assert.Equal(t, "image/jpeg", inline["mime_type"])
	assert.Equal(t, "/9g=", inline["data"])
}

func TestGeminiExtractor_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGeminiExtractor(srv.Client(), srv.URL, "secret", "gemini-test")
	_, err := g.Extract(context.Background(), []byte{1}, time.Now())
	require.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "429")
}

func TestGeminiExtractor_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := NewGeminiExtractor(srv.Client(), srv.URL, "secret", "gemini-test")
	_, err := g.Extract(context.Background(), []byte{1}, time.Now())
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestOpenAIExtractor_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])
		assert.Equal(t, "json_object", body["response_format"].(map[string]any)["type"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[{\"name\":\"Milk\"}]"}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAIExtractor(srv.Client(), srv.URL, "sk-test", "gpt-test")
	payload, err := o.Extract(context.Background(), []byte{1}, time.Now())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Milk"}]`, string(payload))
}

func TestOpenAIExtractor_ErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	o := NewOpenAIExtractor(srv.Client(), srv.URL, "bad", "")
	_, err := o.Extract(context.Background(), []byte{1}, time.Now())
	require.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.True(t, strings.Contains(err.Error(), "invalid api key"))
}

func TestOpenAIExtractor_GenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Temperature float64 `json:"temperature"`
			TopP        float64 `json:"top_p"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, "one\n\ntwo", body.Messages[0].Content)
		assert.Equal(t, 0.7, body.Temperature)
		assert.Equal(t, 0.8, body.TopP)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Omelette"}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAIExtractor(srv.Client(), srv.URL, "sk-test", "")
	text, err := o.GenerateContent(context.Background(),
		[]map[string]interface{}{{"text": "one"}, {"text": "two"}},
		map[string]interface{}{"temperature": 0.7, "topP": 0.8, "topK": 40},
	)
	require.NoError(t, err)
	assert.Equal(t, "Omelette", text)
}
