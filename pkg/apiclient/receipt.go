package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nomorewaste/domain"
	"nomorewaste/pkg/receipt"
)

func (c *Client) ExtractReceipt(ctx context.Context, image []byte) (domain.ExtractReceiptResponse, error) {
	var res domain.ExtractReceiptResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/receipts/extract", image, &res)
	return res, err
}

// Extractor routes a pipeline's extraction through the server, which holds the provider keys.
func (c *Client) Extractor() receipt.Extractor {
	return remoteExtractor{client: c}
}

type remoteExtractor struct {
	client *Client
}

// Extract re-encodes the server's drafts as an extraction payload so the pipeline parses
// them like any provider answer and assigns its own temporary ids.
func (r remoteExtractor) Extract(ctx context.Context, image []byte, today time.Time) ([]byte, error) {
	res, err := r.client.ExtractReceipt(ctx, image)
	if err != nil {
		return nil, err
	}
	type row struct {
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
		Category string  `json:"category"`
		Expiry   string  `json:"expiry,omitempty"`
		Emoji    string  `json:"emoji,omitempty"`
	}
	rows := make([]row, 0, len(res.Items))
	for _, d := range res.Items {
		r := row{Name: d.Name, Price: d.Price, Quantity: d.Quantity, Category: d.Category, Emoji: d.Emoji}
		if d.Expiry != nil {
			r.Expiry = d.Expiry.String()
		}
		rows = append(rows, r)
	}
	return json.Marshal(map[string]any{"items": rows})
}
