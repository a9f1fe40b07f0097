package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"nomorewaste/domain"
	"nomorewaste/internal/api/presenters"
	"nomorewaste/pkg/household"
)

type (
	HouseholdHandler interface {
		CreateHousehold(c *fiber.Ctx) error
		GetMyHousehold(c *fiber.Ctx) error
		JoinHousehold(c *fiber.Ctx) error
		GenerateInviteCode(c *fiber.Ctx) error
		SendInvite(c *fiber.Ctx) error
		LeaveHousehold(c *fiber.Ctx) error
		DeleteHousehold(c *fiber.Ctx) error
	}

	householdHandler struct {
		householdService household.HouseholdService
		validator        *validator.Validate
	}
)

func NewHouseholdHandler(householdService household.HouseholdService, validator *validator.Validate) HouseholdHandler {
	return &householdHandler{
		householdService: householdService,
		validator:        validator,
	}
}

func (h *householdHandler) CreateHousehold(c *fiber.Ctx) error {
	userID, email := member(c)
	req := new(domain.CreateHouseholdRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateHousehold, err)
	}

	res, err := h.householdService.CreateHousehold(c.Context(), *req, userID, email)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedCreateHousehold, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateHousehold)
}

func (h *householdHandler) GetMyHousehold(c *fiber.Ctx) error {
	userID, _ := member(c)

	res, err := h.householdService.GetMyHousehold(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetHousehold, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetHousehold)
}

func (h *householdHandler) JoinHousehold(c *fiber.Ctx) error {
	userID, email := member(c)
	req := new(domain.JoinHouseholdRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedJoinHousehold, err)
	}

	res, err := h.householdService.JoinHousehold(c.Context(), *req, userID, email)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedJoinHousehold, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessJoinHousehold)
}

func (h *householdHandler) GenerateInviteCode(c *fiber.Ctx) error {
	userID, email := member(c)

	res, err := h.householdService.GenerateInviteCode(c.Context(), userID, email)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedInviteCode, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessInviteCode)
}

func (h *householdHandler) SendInvite(c *fiber.Ctx) error {
	userID, email := member(c)
	req := new(domain.InviteEmailRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedInviteEmail, err)
	}

	if err := h.householdService.SendInvite(c.Context(), *req, userID, email); err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedInviteEmail, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessInviteEmail)
}

func (h *householdHandler) LeaveHousehold(c *fiber.Ctx) error {
	userID, email := member(c)

	if err := h.householdService.LeaveHousehold(c.Context(), userID, email); err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedLeaveHousehold, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessLeaveHousehold)
}

func (h *householdHandler) DeleteHousehold(c *fiber.Ctx) error {
	userID, _ := member(c)

	if err := h.householdService.DeleteHousehold(c.Context(), userID); err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedDeleteHousehold, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteHousehold)
}
