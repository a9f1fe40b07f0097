package apiclient

import (
	"context"
	"net/http"

	"nomorewaste/domain"
	"nomorewaste/entities"
	"nomorewaste/pkg/ledger"
)

func (c *Client) Fetch(ctx context.Context) (domain.InventoryResponse, error) {
	var res domain.InventoryResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/inventory", nil, &res)
	return res, err
}

func (c *Client) Stats(ctx context.Context) (domain.StatsResponse, error) {
	var res domain.StatsResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/inventory/stats", nil, &res)
	return res, err
}

func (c *Client) AddItems(ctx context.Context, items []domain.NewItemRequest) ([]entities.Item, error) {
	var res domain.AddItemsResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/items", domain.AddItemsRequest{Items: items}, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Split always sends the amount: the client has already resolved it against its own view.
func (c *Client) Split(ctx context.Context, itemID string, d ledger.Disposition, amount int) (domain.SplitResponse, error) {
	action := "consume"
	if d == ledger.Wasted {
		action = "waste"
	}
	var res domain.SplitResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/items/"+escape(itemID)+"/"+action, domain.SplitRequest{Amount: &amount}, &res)
	return res, err
}

func (c *Client) UpdateItem(ctx context.Context, id string, req domain.UpdateItemRequest) error {
	return c.do(ctx, http.MethodPut, "/api/v1/items/"+escape(id), req, nil)
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/items/"+escape(id), nil, nil)
}

func (c *Client) UpdateLog(ctx context.Context, d ledger.Disposition, id string, req domain.UpdateLogRequest) error {
	return c.do(ctx, http.MethodPut, "/api/v1/history/"+string(d)+"/"+escape(id), req, nil)
}

func (c *Client) DeleteLog(ctx context.Context, d ledger.Disposition, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/history/"+string(d)+"/"+escape(id), nil, nil)
}
