// Package fridge is the client-side inventory core. It keeps an immutable snapshot of a
// household's collections, applies optimistic mutations to it, and merges server change
// events and full re-fetches back into it.
package fridge

import (
	"nomorewaste/domain"
	"nomorewaste/entities"
)

// Snapshot is an immutable view of one household. Transitions never modify the slices or
// map of an existing Snapshot; they return a new one.
type Snapshot struct {
	Items    []entities.Item
	Waste    []entities.WasteLog
	Consumed []entities.ConsumedLog
	Activity []entities.ActivityLog

	// Unconfirmed maps a record id to the reason its last local change failed to persist.
	Unconfirmed map[string]string
}

func FromInventory(inv domain.InventoryResponse) Snapshot {
	return Snapshot{
		Items:    clone(inv.Items),
		Waste:    clone(inv.Waste),
		Consumed: clone(inv.Consumed),
		Activity: clone(inv.Activity),
	}
}

func (s Snapshot) Item(id string) (entities.Item, bool) {
	i := indexOf(s.Items, id)
	if i < 0 {
		return entities.Item{}, false
	}
	return s.Items[i], true
}

func (s Snapshot) IsUnconfirmed(id string) bool {
	_, ok := s.Unconfirmed[id]
	return ok
}

func (s Snapshot) withUnconfirmed(reason string, ids ...string) Snapshot {
	m := make(map[string]string, len(s.Unconfirmed)+len(ids))
	for k, v := range s.Unconfirmed {
		m[k] = v
	}
	for _, id := range ids {
		m[id] = reason
	}
	s.Unconfirmed = m
	return s
}

func (s Snapshot) withoutUnconfirmed(ids ...string) Snapshot {
	if len(s.Unconfirmed) == 0 {
		return s
	}
	m := make(map[string]string, len(s.Unconfirmed))
	for k, v := range s.Unconfirmed {
		m[k] = v
	}
	for _, id := range ids {
		delete(m, id)
	}
	s.Unconfirmed = m
	return s
}

type record interface {
	GetID() string
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func indexOf[T record](list []T, id string) int {
	for i, r := range list {
		if r.GetID() == id {
			return i
		}
	}
	return -1
}

// prepend returns a new slice with rec in front.
func prepend[T any](list []T, recs ...T) []T {
	out := make([]T, 0, len(list)+len(recs))
	out = append(out, recs...)
	return append(out, list...)
}

// insertOnce prepends rec unless a record with the same id is already present.
func insertOnce[T record](list []T, rec T) ([]T, bool) {
	if indexOf(list, rec.GetID()) >= 0 {
		return list, false
	}
	return prepend(list, rec), true
}

// replace swaps the record with rec's id for rec. Absent ids are ignored.
func replace[T record](list []T, rec T) ([]T, bool) {
	i := indexOf(list, rec.GetID())
	if i < 0 {
		return list, false
	}
	out := clone(list)
	out[i] = rec
	return out, true
}

// remove drops the record with id. Absent ids are a no-op.
func remove[T record](list []T, id string) ([]T, bool) {
	i := indexOf(list, id)
	if i < 0 {
		return list, false
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...), true
}
