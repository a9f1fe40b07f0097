// Package apiclient talks to the nomorewaste REST API and change feed on behalf of one
// signed-in member. Client satisfies fridge.Backend and Feed satisfies fridge.Feed.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nomorewaste/domain"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL (for example http://localhost:8080).
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// APIError is a non-2xx answer. It unwraps to the matching domain error when the server
// reported one.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%d)", e.Message, e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

var knownErrors = []error{
	domain.ErrNotAMember,
	domain.ErrTokenNotFound,
	domain.ErrTokenInvalid,
	domain.ErrTokenExpired,
	domain.ErrAlreadyInHousehold,
	domain.ErrHouseholdNotFound,
	domain.ErrInviteCodeNotFound,
	domain.ErrInviteCodeExpired,
	domain.ErrItemNotFound,
	domain.ErrLogNotFound,
	domain.ErrAmountOutOfRange,
	domain.ErrAmountRequired,
	domain.ErrInvalidDisposition,
	domain.ErrNoItems,
	domain.ErrInvalidImage,
	domain.ErrExtractionFailed,
	domain.ErrDailyLimitReached,
	domain.ErrNoIngredients,
	domain.ErrPromptRequired,
	domain.ErrRecipeFailed,
}

func (e *APIError) Unwrap() error {
	for _, known := range knownErrors {
		msg := known.Error()
		if e.Detail == msg || strings.HasPrefix(e.Detail, msg+":") {
			return known
		}
	}
	return nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
		contentType = "application/octet-stream"
	default:
		requestJSON, err := json.Marshal(b)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(requestJSON)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, reader, contentType, out)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("%s %s: decode response (%s): %w", method, path, resp.Status, err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg, Detail: env.Error}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func escape(segment string) string {
	return url.PathEscape(segment)
}

// IsNotAMember reports whether err means the member has no household yet.
func IsNotAMember(err error) bool {
	return errors.Is(err, domain.ErrNotAMember)
}
