package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"nomorewaste/domain"
	"nomorewaste/internal/api/presenters"
	"nomorewaste/pkg/inventory"
	"nomorewaste/pkg/ledger"
)

type (
	InventoryHandler interface {
		GetInventory(c *fiber.Ctx) error
		GetStats(c *fiber.Ctx) error
		AddItems(c *fiber.Ctx) error
		UpdateItem(c *fiber.Ctx) error
		DeleteItem(c *fiber.Ctx) error
		ConsumeItem(c *fiber.Ctx) error
		WasteItem(c *fiber.Ctx) error
		UpdateLog(c *fiber.Ctx) error
		DeleteLog(c *fiber.Ctx) error
	}

	inventoryHandler struct {
		inventoryService inventory.InventoryService
		validator        *validator.Validate
	}
)

func NewInventoryHandler(inventoryService inventory.InventoryService, validator *validator.Validate) InventoryHandler {
	return &inventoryHandler{
		inventoryService: inventoryService,
		validator:        validator,
	}
}

func (h *inventoryHandler) GetInventory(c *fiber.Ctx) error {
	userID, _ := member(c)

	res, err := h.inventoryService.GetInventory(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetInventory, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetInventory)
}

func (h *inventoryHandler) GetStats(c *fiber.Ctx) error {
	userID, _ := member(c)

	res, err := h.inventoryService.GetStats(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetStats, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetStats)
}

func (h *inventoryHandler) AddItems(c *fiber.Ctx) error {
	userID, email := member(c)
	req := new(domain.AddItemsRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddItems, err)
	}

	res, err := h.inventoryService.AddItems(c.Context(), *req, userID, email)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedAddItems, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddItems)
}

func (h *inventoryHandler) UpdateItem(c *fiber.Ctx) error {
	userID, email := member(c)
	itemID := c.Params("id")
	req := new(domain.UpdateItemRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateItem, err)
	}

	res, err := h.inventoryService.UpdateItem(c.Context(), itemID, *req, userID, email)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedUpdateItem, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateItem)
}

func (h *inventoryHandler) DeleteItem(c *fiber.Ctx) error {
	userID, email := member(c)
	itemID := c.Params("id")

	if err := h.inventoryService.DeleteItem(c.Context(), itemID, userID, email); err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedDeleteItem, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteItem)
}

func (h *inventoryHandler) ConsumeItem(c *fiber.Ctx) error {
	return h.split(c, ledger.Consumed, domain.MessageSuccessConsumeItem, domain.MessageFailedConsumeItem)
}

func (h *inventoryHandler) WasteItem(c *fiber.Ctx) error {
	return h.split(c, ledger.Wasted, domain.MessageSuccessWasteItem, domain.MessageFailedWasteItem)
}

func (h *inventoryHandler) split(c *fiber.Ctx, d ledger.Disposition, okMsg, failMsg string) error {
	userID, email := member(c)
	itemID := c.Params("id")
	req := new(domain.SplitRequest)

	// the amount is optional, so is the body
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, failMsg, domain.ErrAmountOutOfRange)
	}

	res, err := h.inventoryService.Split(c.Context(), itemID, d, *req, userID, email)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), failMsg, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, okMsg)
}

func (h *inventoryHandler) UpdateLog(c *fiber.Ctx) error {
	userID, email := member(c)
	d, err := ledger.ParseDisposition(c.Params("disposition"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateLog, err)
	}
	req := new(domain.UpdateLogRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateLog, err)
	}

	res, err := h.inventoryService.UpdateLog(c.Context(), d, c.Params("id"), *req, userID, email)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedUpdateLog, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateLog)
}

func (h *inventoryHandler) DeleteLog(c *fiber.Ctx) error {
	userID, email := member(c)
	d, err := ledger.ParseDisposition(c.Params("disposition"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDeleteLog, err)
	}

	if err := h.inventoryService.DeleteLog(c.Context(), d, c.Params("id"), userID, email); err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedDeleteLog, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteLog)
}
