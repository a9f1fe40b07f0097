package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessCreateHousehold = "household created successfully"
	MessageSuccessGetHousehold    = "household retrieved successfully"
	MessageSuccessJoinHousehold   = "joined household successfully"
	MessageSuccessInviteCode      = "invite code generated successfully"
	MessageSuccessInviteEmail     = "invite sent successfully"
	MessageSuccessLeaveHousehold  = "left household successfully"
	MessageSuccessDeleteHousehold = "household deleted successfully"

	MessageFailedCreateHousehold = "failed to create household"
	MessageFailedGetHousehold    = "failed to retrieve household"
	MessageFailedJoinHousehold   = "failed to join household"
	MessageFailedInviteCode      = "failed to generate invite code"
	MessageFailedInviteEmail     = "failed to send invite"
	MessageFailedLeaveHousehold  = "failed to leave household"
	MessageFailedDeleteHousehold = "failed to delete household"

	ErrAlreadyInHousehold  = errors.New("you already belong to a household")
	ErrHouseholdNotFound   = errors.New("household not found")
	ErrInviteCodeNotFound  = errors.New("invite code not found")
	ErrInviteCodeExpired   = errors.New("invite code has expired")
	ErrInviteCodeCollision = errors.New("could not allocate a unique invite code")
)

type (
	CreateHouseholdRequest struct {
		Name string `json:"name" validate:"required,max=64"`
	}

	JoinHouseholdRequest struct {
		InviteCode string `json:"invite_code" validate:"required,alphanum,len=6"`
	}

	InviteEmailRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	MemberResponse struct {
		UserID   string    `json:"user_id"`
		Email    string    `json:"email"`
		JoinedAt time.Time `json:"joined_at"`
	}

	HouseholdResponse struct {
		ID               string           `json:"id"`
		Name             string           `json:"name"`
		InviteCode       string           `json:"invite_code,omitempty"`
		InviteCodeExpiry *time.Time       `json:"invite_code_expiry,omitempty"`
		Members          []MemberResponse `json:"members"`
	}

	InviteCodeResponse struct {
		InviteCode string    `json:"invite_code"`
		ExpiresAt  time.Time `json:"expires_at"`
	}
)
