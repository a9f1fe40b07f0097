package receipt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"nomorewaste/domain"
	"nomorewaste/entities"
)

const BlankName = "New Item"

// MaxDraftQuantity caps quantities read from an extraction payload.
const MaxDraftQuantity = 9999

// Editable draft fields.
const (
	FieldName     = "name"
	FieldPrice    = "price"
	FieldQuantity = "quantity"
	FieldCategory = "category"
	FieldExpiry   = "expiry"
	FieldEmoji    = "emoji"
)

func BlankDraft(id string, today time.Time) domain.DraftItem {
	exp := entities.NewDate(today)
	return domain.DraftItem{
		ID:       id,
		Name:     BlankName,
		Price:    0,
		Quantity: 1,
		Category: domain.DefaultCategory,
		Expiry:   &exp,
		Emoji:    domain.CategoryEmoji(domain.DefaultCategory),
	}
}

// SetField applies one user edit. Numbers are coerced from text; anything non-numeric, a
// negative price or a quantity below 1 is rejected and d is returned unchanged.
func SetField(d domain.DraftItem, field, value string) (domain.DraftItem, error) {
	switch field {
	case FieldName:
		d.Name = value
	case FieldPrice:
		n, err := parseNumber(value)
		if err != nil {
			return d, fmt.Errorf("%w: price %q is not a number", domain.ErrInvalidDraftField, value)
		}
		if n < 0 {
			return d, fmt.Errorf("%w: price %q is negative", domain.ErrInvalidDraftField, value)
		}
		d.Price = n
	case FieldQuantity:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return d, fmt.Errorf("%w: quantity %q is not a whole number", domain.ErrInvalidDraftField, value)
		}
		if n < 1 {
			return d, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidDraftField)
		}
		d.Quantity = n
	case FieldCategory:
		d.Category = value
	case FieldExpiry:
		if strings.TrimSpace(value) == "" {
			d.Expiry = nil
			break
		}
		exp, err := entities.ParseDate(value)
		if err != nil {
			return d, fmt.Errorf("%w: expiry %q is not a date", domain.ErrInvalidDraftField, value)
		}
		d.Expiry = &exp
	case FieldEmoji:
		d.Emoji = value
	default:
		return d, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidDraftField, field)
	}
	return d, nil
}
