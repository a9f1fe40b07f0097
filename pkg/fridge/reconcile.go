package fridge

import (
	"encoding/json"
	"fmt"

	"nomorewaste/domain"
	"nomorewaste/entities"
	"nomorewaste/pkg/ids"
)

// ApplyEvent merges one change event into s. Inserts are idempotent on the persisted id,
// updates and deletes of absent records are ignored, and activity inserts are always prepended.
// Events for unknown tables leave s unchanged.
func ApplyEvent(s Snapshot, ev domain.ChangeEvent) (Snapshot, error) {
	switch ev.Table {
	case domain.TableItems:
		items, err := applyTo(s.Items, ev)
		if err != nil {
			return s, err
		}
		s.Items = items
	case domain.TableWasteLogs:
		waste, err := applyTo(s.Waste, ev)
		if err != nil {
			return s, err
		}
		s.Waste = waste
	case domain.TableConsumedLogs:
		consumed, err := applyTo(s.Consumed, ev)
		if err != nil {
			return s, err
		}
		s.Consumed = consumed
	case domain.TableActivityLogs:
		if ev.Type != domain.EventInsert {
			return s, nil
		}
		var entry entities.ActivityLog
		if err := json.Unmarshal(ev.New, &entry); err != nil {
			return s, fmt.Errorf("decode activity event: %w", err)
		}
		s.Activity = prepend(s.Activity, entry)
	}
	return s, nil
}

func applyTo[T record](list []T, ev domain.ChangeEvent) ([]T, error) {
	switch ev.Type {
	case domain.EventInsert:
		var rec T
		if err := json.Unmarshal(ev.New, &rec); err != nil {
			return list, fmt.Errorf("decode %s insert: %w", ev.Table, err)
		}
		out, _ := insertOnce(list, rec)
		return out, nil
	case domain.EventUpdate:
		var rec T
		if err := json.Unmarshal(ev.New, &rec); err != nil {
			return list, fmt.Errorf("decode %s update: %w", ev.Table, err)
		}
		out, _ := replace(list, rec)
		return out, nil
	case domain.EventDelete:
		raw := ev.Old
		if len(raw) == 0 {
			raw = ev.New
		}
		var key domain.RowKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return list, fmt.Errorf("decode %s delete: %w", ev.Table, err)
		}
		out, _ := remove(list, key.ID)
		return out, nil
	}
	return list, fmt.Errorf("unknown event type %q", ev.Type)
}

// MergeRefetch replaces s with server truth from inv. Locally added records whose id is
// still temporary and whose persistence call is in flight are kept in front. A temporary
// record carries no server id, so if inv already holds its persisted row both show until
// ConfirmItem collapses them. Unconfirmed marks survive only on those in-flight records.
func MergeRefetch(s Snapshot, inv domain.InventoryResponse, inFlight map[string]bool) Snapshot {
	next := FromInventory(inv)

	var keep []entities.Item
	for _, it := range s.Items {
		if ids.IsTemp(it.ID) && inFlight[it.ID] {
			keep = append(keep, it)
		}
	}
	if len(keep) > 0 {
		next.Items = prepend(next.Items, keep...)
	}
	next.Waste = keepTemp(s.Waste, next.Waste, inFlight)
	next.Consumed = keepTemp(s.Consumed, next.Consumed, inFlight)

	for id, reason := range s.Unconfirmed {
		if ids.IsTemp(id) && inFlight[id] {
			next = next.withUnconfirmed(reason, id)
		}
	}
	return next
}

func keepTemp[T record](local, fetched []T, inFlight map[string]bool) []T {
	var keep []T
	for _, r := range local {
		if ids.IsTemp(r.GetID()) && inFlight[r.GetID()] {
			keep = append(keep, r)
		}
	}
	if len(keep) == 0 {
		return fetched
	}
	return prepend(fetched, keep...)
}
