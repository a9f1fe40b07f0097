package apiclient

import (
	"context"
	"net/http"

	"nomorewaste/domain"
)

func (c *Client) CreateHousehold(ctx context.Context, name string) (domain.HouseholdResponse, error) {
	var res domain.HouseholdResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/households", domain.CreateHouseholdRequest{Name: name}, &res)
	return res, err
}

func (c *Client) MyHousehold(ctx context.Context) (domain.HouseholdResponse, error) {
	var res domain.HouseholdResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/households/me", nil, &res)
	return res, err
}

func (c *Client) JoinHousehold(ctx context.Context, code string) (domain.HouseholdResponse, error) {
	var res domain.HouseholdResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/households/join", domain.JoinHouseholdRequest{InviteCode: code}, &res)
	return res, err
}

func (c *Client) GenerateInviteCode(ctx context.Context) (domain.InviteCodeResponse, error) {
	var res domain.InviteCodeResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/households/invite-code", nil, &res)
	return res, err
}

func (c *Client) SendInvite(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/households/invite-email", domain.InviteEmailRequest{Email: email}, nil)
}

func (c *Client) LeaveHousehold(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/households/membership", nil, nil)
}

func (c *Client) DeleteHousehold(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/households", nil, nil)
}

// Me reports the member the token belongs to.
func (c *Client) Me(ctx context.Context) (userID, email string, err error) {
	var res struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &res); err != nil {
		return "", "", err
	}
	return res.UserID, res.Email, nil
}
