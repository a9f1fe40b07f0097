package domain

import (
	"errors"

	"nomorewaste/entities"
)

var (
	MessageSuccessExtractReceipt = "receipt read successfully"
	MessageFailedExtractReceipt  = "failed to read receipt, please try a clearer photo"

	ErrExtractionFailed  = errors.New("extraction failed")
	ErrInvalidImage      = errors.New("invalid image")
	ErrNotReviewing      = errors.New("no receipt is under review")
	ErrPipelineBusy      = errors.New("a receipt is already being processed")
	ErrDraftNotFound     = errors.New("draft not found")
	ErrInvalidDraftField = errors.New("invalid draft field")
	ErrNoDrafts          = errors.New("nothing to commit")
)

type (
	// DraftItem is a user-editable candidate produced by receipt extraction. ID is temporary.
	DraftItem struct {
		ID       string         `json:"id"`
		Name     string         `json:"name"`
		Price    float64        `json:"price"`
		Quantity int            `json:"quantity"`
		Category string         `json:"category"`
		Expiry   *entities.Date `json:"expiry,omitempty"`
		Emoji    string         `json:"emoji,omitempty"`
	}

	ExtractReceiptResponse struct {
		ScanID string      `json:"scan_id"`
		Items  []DraftItem `json:"items"`
	}
)

// NewItem strips the temporary id and normalizes the category.
func (d DraftItem) NewItem() NewItemRequest {
	q := d.Quantity
	if q < 1 {
		q = 1
	}
	return NewItemRequest{
		Name:     d.Name,
		Price:    d.Price,
		Quantity: q,
		Category: NormalizeCategory(d.Category),
		Expiry:   d.Expiry,
		Emoji:    d.Emoji,
	}
}
