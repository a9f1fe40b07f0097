// Package ledger computes how removing units from an inventory item splits it between
// the in-stock collection and a history collection. It has no side effects: callers
// persist the outcome and emit events.
package ledger

import (
	"time"

	"nomorewaste/domain"
	"nomorewaste/entities"
)

type Disposition string

const (
	Consumed Disposition = domain.DispositionConsumed
	Wasted   Disposition = domain.DispositionWasted
)

func ParseDisposition(s string) (Disposition, error) {
	switch s {
	case domain.DispositionConsumed:
		return Consumed, nil
	case domain.DispositionWasted:
		return Wasted, nil
	}
	return "", domain.ErrInvalidDisposition
}

// Outcome is the result of a split. When Removed is true the item leaves the in-stock
// collection and Item holds its last state; otherwise Item carries the reduced quantity.
type Outcome struct {
	Disposition Disposition
	Item        entities.Item
	Removed     bool
	Entry       entities.LogEntry
}

// ResolveAmount picks the amount for a removal when the user may not have chosen one.
// Consuming defaults to a single unit. Wasting a multi-unit item needs an explicit amount.
func ResolveAmount(d Disposition, quantity int, requested *int) (int, error) {
	if requested != nil {
		return *requested, nil
	}
	switch d {
	case Consumed:
		return 1, nil
	case Wasted:
		if quantity == 1 {
			return 1, nil
		}
		return 0, domain.ErrAmountRequired
	}
	return 0, domain.ErrInvalidDisposition
}

// Split removes amount units from item. amount must lie in [1, item.Quantity]; it is never clamped.
func Split(item entities.Item, amount int, d Disposition) (Outcome, error) {
	if d != Consumed && d != Wasted {
		return Outcome{}, domain.ErrInvalidDisposition
	}
	if amount < 1 || amount > item.Quantity {
		return Outcome{}, domain.ErrAmountOutOfRange
	}

	out := Outcome{
		Disposition: d,
		Item:        item,
		Entry: entities.LogEntry{
			FridgeID: item.FridgeID,
			Name:     item.Name,
			Category: item.Category,
			Price:    item.Price,
			Quantity: amount,
		},
	}
	if amount == item.Quantity {
		out.Removed = true
		return out, nil
	}
	out.Item.Quantity = item.Quantity - amount
	return out, nil
}

// Remove resolves the amount and splits in one step.
func Remove(item entities.Item, requested *int, d Disposition) (Outcome, error) {
	amount, err := ResolveAmount(d, item.Quantity, requested)
	if err != nil {
		return Outcome{}, err
	}
	return Split(item, amount, d)
}

// Remaining is the in-stock quantity after the split.
func (o Outcome) Remaining() int {
	if o.Removed {
		return 0
	}
	return o.Item.Quantity
}

func (o Outcome) WasteLog(id string, at time.Time) entities.WasteLog {
	e := o.Entry
	e.ID = id
	return entities.WasteLog{LogEntry: e, WastedAt: at}
}

func (o Outcome) ConsumedLog(id string, at time.Time) entities.ConsumedLog {
	e := o.Entry
	e.ID = id
	return entities.ConsumedLog{LogEntry: e, ConsumedAt: at}
}
