package domain

import (
	"errors"

	"nomorewaste/entities"
)

const (
	DispositionConsumed = "consumed"
	DispositionWasted   = "wasted"
)

var (
	MessageSuccessGetInventory = "inventory retrieved successfully"
	MessageSuccessAddItems     = "items added successfully"
	MessageSuccessUpdateItem   = "item updated successfully"
	MessageSuccessDeleteItem   = "item deleted successfully"
	MessageSuccessConsumeItem  = "item marked as consumed"
	MessageSuccessWasteItem    = "item marked as wasted"
	MessageSuccessUpdateLog    = "history entry updated successfully"
	MessageSuccessDeleteLog    = "history entry deleted successfully"
	MessageSuccessGetStats     = "statistics retrieved successfully"

	MessageFailedGetInventory = "failed to retrieve inventory"
	MessageFailedAddItems     = "failed to add items"
	MessageFailedUpdateItem   = "failed to update item"
	MessageFailedDeleteItem   = "failed to delete item"
	MessageFailedConsumeItem  = "failed to mark item as consumed"
	MessageFailedWasteItem    = "failed to mark item as wasted"
	MessageFailedUpdateLog    = "failed to update history entry"
	MessageFailedDeleteLog    = "failed to delete history entry"
	MessageFailedGetStats     = "failed to retrieve statistics"

	ErrItemNotFound       = errors.New("item not found")
	ErrLogNotFound        = errors.New("history entry not found")
	ErrAmountOutOfRange   = errors.New("amount must be between 1 and the remaining quantity")
	ErrAmountRequired     = errors.New("choose how many units to remove")
	ErrInvalidDisposition = errors.New("disposition must be consumed or wasted")
	ErrNoItems            = errors.New("at least one item is required")
	ErrItemNotConfirmed   = errors.New("item is still being saved")
)

type (
	// NewItemRequest is one row of a batch insert; it is also what a committed draft becomes.
	NewItemRequest struct {
		Name     string         `json:"name" validate:"required,max=128"`
		Price    float64        `json:"price" validate:"gte=0"`
		Quantity int            `json:"quantity" validate:"required,min=1"`
		Category string         `json:"category" validate:"omitempty,oneof=Produce Dairy Meat Beverage Pantry Bakery Frozen Other"`
		Expiry   *entities.Date `json:"expiry,omitempty"`
		Emoji    string         `json:"emoji,omitempty"`
	}

	AddItemsRequest struct {
		Items []NewItemRequest `json:"items" validate:"required,min=1,dive"`
	}

	AddItemsResponse struct {
		Items []entities.Item `json:"items"`
	}

	// UpdateItemRequest overwrites every editable field of an item.
	UpdateItemRequest struct {
		Name     string         `json:"name" validate:"required,max=128"`
		Price    float64        `json:"price" validate:"gte=0"`
		Quantity int            `json:"quantity" validate:"required,min=1"`
		Category string         `json:"category" validate:"required,oneof=Produce Dairy Meat Beverage Pantry Bakery Frozen Other"`
		Expiry   *entities.Date `json:"expiry,omitempty"`
		Emoji    string         `json:"emoji,omitempty"`
	}

	SplitRequest struct {
		Amount *int `json:"amount,omitempty" validate:"omitempty,min=1"`
	}

	// SplitResponse is the outcome of consuming or wasting part of an item. Item is nil when the item was removed.
	SplitResponse struct {
		Item     *entities.Item        `json:"item,omitempty"`
		Removed  bool                  `json:"removed"`
		Waste    *entities.WasteLog    `json:"waste,omitempty"`
		Consumed *entities.ConsumedLog `json:"consumed,omitempty"`
	}

	UpdateLogRequest struct {
		Name     string  `json:"name" validate:"required,max=128"`
		Price    float64 `json:"price" validate:"gte=0"`
		Quantity int     `json:"quantity" validate:"required,min=1"`
		Category string  `json:"category" validate:"required,oneof=Produce Dairy Meat Beverage Pantry Bakery Frozen Other"`
	}

	// InventoryResponse carries every collection, newest first.
	InventoryResponse struct {
		Items    []entities.Item        `json:"items"`
		Waste    []entities.WasteLog    `json:"waste"`
		Consumed []entities.ConsumedLog `json:"consumed"`
		Activity []entities.ActivityLog `json:"activity"`
	}

	StatsResponse struct {
		ItemCount     int     `json:"item_count"`
		FridgeValue   float64 `json:"fridge_value"`
		WastedLoss    float64 `json:"wasted_loss"`
		ConsumedValue float64 `json:"consumed_value"`
		ExpiringSoon  int     `json:"expiring_soon"`
		Expired       int     `json:"expired"`
	}
)

func ValidDisposition(d string) bool {
	return d == DispositionConsumed || d == DispositionWasted
}
