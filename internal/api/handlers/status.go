package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"nomorewaste/domain"
)

// statusFor maps service errors onto HTTP status codes. Anything unrecognized is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotAMember),
		errors.Is(err, domain.ErrHouseholdNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrLogNotFound),
		errors.Is(err, domain.ErrInviteCodeNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyInHousehold):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInviteCodeExpired):
		return fiber.StatusGone
	case errors.Is(err, domain.ErrDailyLimitReached):
		return fiber.StatusTooManyRequests
	case errors.Is(err, domain.ErrAmountOutOfRange),
		errors.Is(err, domain.ErrAmountRequired),
		errors.Is(err, domain.ErrInvalidDisposition),
		errors.Is(err, domain.ErrNoItems),
		errors.Is(err, domain.ErrInvalidImage),
		errors.Is(err, domain.ErrPromptRequired),
		errors.Is(err, domain.ErrNoIngredients):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrExtractionFailed),
		errors.Is(err, domain.ErrRecipeFailed):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func member(c *fiber.Ctx) (string, string) {
	userID, _ := c.Locals("user_id").(string)
	email, _ := c.Locals("email").(string)
	return userID, email
}
