package domain

import (
	"encoding/json"
	"time"
)

const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"

	TableItems        = "items"
	TableWasteLogs    = "waste_logs"
	TableConsumedLogs = "consumed_logs"
	TableActivityLogs = "activity_logs"
)

// ChangeEvent is one row change delivered on a household's feed. Delivery is at-least-once
// and only approximately ordered.
type ChangeEvent struct {
	Type     string          `json:"type"`
	Table    string          `json:"table"`
	FridgeID string          `json:"fridge_id"`
	New      json.RawMessage `json:"new,omitempty"`
	Old      json.RawMessage `json:"old,omitempty"`
	At       time.Time       `json:"ts"`
}

func NewChangeEvent(kind, table, fridgeID string, newRow, oldRow any) (ChangeEvent, error) {
	ev := ChangeEvent{Type: kind, Table: table, FridgeID: fridgeID, At: time.Now().UTC()}
	if newRow != nil {
		b, err := json.Marshal(newRow)
		if err != nil {
			return ChangeEvent{}, err
		}
		ev.New = b
	}
	if oldRow != nil {
		b, err := json.Marshal(oldRow)
		if err != nil {
			return ChangeEvent{}, err
		}
		ev.Old = b
	}
	return ev, nil
}

// RowKey is the identity part of an event row.
type RowKey struct {
	ID string `json:"id"`
}
