package fridge

import (
	"time"

	"nomorewaste/domain"
	"nomorewaste/entities"
	"nomorewaste/pkg/ledger"
)

// AddLocal prepends freshly built items. They carry temporary ids until confirmed.
func AddLocal(s Snapshot, items ...entities.Item) Snapshot {
	s.Items = prepend(s.Items, items...)
	return s
}

// SplitLocal runs the ledger against the local copy of itemID and applies the outcome:
// the item shrinks or disappears and a history entry with entryID is prepended.
// Constraint violations leave s untouched.
func SplitLocal(s Snapshot, itemID string, requested *int, d ledger.Disposition, entryID string, at time.Time) (Snapshot, ledger.Outcome, error) {
	item, ok := s.Item(itemID)
	if !ok {
		return s, ledger.Outcome{}, domain.ErrItemNotFound
	}
	out, err := ledger.Remove(item, requested, d)
	if err != nil {
		return s, ledger.Outcome{}, err
	}

	if out.Removed {
		s.Items, _ = remove(s.Items, itemID)
	} else {
		s.Items, _ = replace(s.Items, out.Item)
	}
	switch d {
	case ledger.Wasted:
		s.Waste = prepend(s.Waste, out.WasteLog(entryID, at))
	case ledger.Consumed:
		s.Consumed = prepend(s.Consumed, out.ConsumedLog(entryID, at))
	}
	return s, out, nil
}

// EditItemLocal overwrites the editable fields of an item. Absent ids are ignored.
func EditItemLocal(s Snapshot, id string, req domain.UpdateItemRequest) Snapshot {
	item, ok := s.Item(id)
	if !ok {
		return s
	}
	item.Name = req.Name
	item.Price = req.Price
	item.Quantity = req.Quantity
	item.Category = req.Category
	item.Expiry = req.Expiry
	if req.Emoji != "" {
		item.Emoji = req.Emoji
	}
	s.Items, _ = replace(s.Items, item)
	return s
}

func RemoveItemLocal(s Snapshot, id string) Snapshot {
	s.Items, _ = remove(s.Items, id)
	return s.withoutUnconfirmed(id)
}

// EditLogLocal overwrites a history entry in the collection named by d.
func EditLogLocal(s Snapshot, d ledger.Disposition, id string, req domain.UpdateLogRequest) Snapshot {
	patch := func(e *entities.LogEntry) {
		e.Name = req.Name
		e.Price = req.Price
		e.Quantity = req.Quantity
		e.Category = req.Category
	}
	switch d {
	case ledger.Wasted:
		if i := indexOf(s.Waste, id); i >= 0 {
			w := s.Waste[i]
			patch(&w.LogEntry)
			s.Waste, _ = replace(s.Waste, w)
		}
	case ledger.Consumed:
		if i := indexOf(s.Consumed, id); i >= 0 {
			c := s.Consumed[i]
			patch(&c.LogEntry)
			s.Consumed, _ = replace(s.Consumed, c)
		}
	}
	return s
}

func RemoveLogLocal(s Snapshot, d ledger.Disposition, id string) Snapshot {
	switch d {
	case ledger.Wasted:
		s.Waste, _ = remove(s.Waste, id)
	case ledger.Consumed:
		s.Consumed, _ = remove(s.Consumed, id)
	}
	return s.withoutUnconfirmed(id)
}

// ConfirmItem swaps the temporary record tempID for its persisted form. If the server's echo
// already inserted the persisted id, the temporary record is dropped instead.
func ConfirmItem(s Snapshot, tempID string, confirmed entities.Item) Snapshot {
	s.Items = confirm(s.Items, tempID, confirmed)
	return s.withoutUnconfirmed(tempID)
}

func ConfirmWaste(s Snapshot, tempID string, confirmed entities.WasteLog) Snapshot {
	s.Waste = confirm(s.Waste, tempID, confirmed)
	return s.withoutUnconfirmed(tempID)
}

func ConfirmConsumed(s Snapshot, tempID string, confirmed entities.ConsumedLog) Snapshot {
	s.Consumed = confirm(s.Consumed, tempID, confirmed)
	return s.withoutUnconfirmed(tempID)
}

func confirm[T record](list []T, tempID string, confirmed T) []T {
	if indexOf(list, confirmed.GetID()) >= 0 {
		out, _ := remove(list, tempID)
		return out
	}
	i := indexOf(list, tempID)
	if i < 0 {
		// the temporary record is gone (deleted or re-fetched away); trust the echo path
		return list
	}
	out := clone(list)
	out[i] = confirmed
	return out
}

// MarkUnconfirmed flags records whose persistence call failed.
func MarkUnconfirmed(s Snapshot, reason string, ids ...string) Snapshot {
	return s.withUnconfirmed(reason, ids...)
}
