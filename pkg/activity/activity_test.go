package activity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomorewaste/domain"
	"nomorewaste/entities"
	"nomorewaste/internal/testdb"
)

func TestActivityRepository_NewestFirst(t *testing.T) {
	repo := NewActivityRepository(testdb.Open(t))
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"Milk", "Eggs", "Bread"} {
		e := NewEntry("f1", "a@example.com", entities.ActionAdd, name, "")
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.AppendActivity(ctx, e))
	}
	require.NoError(t, repo.AppendActivity(ctx, NewEntry("f2", "b@example.com", entities.ActionAdd, "Other fridge", "")))

	logs, err := repo.GetActivity(ctx, "f1", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Bread", logs[0].ItemName)
	assert.Equal(t, "Eggs", logs[1].ItemName)
}

func TestBatch_FlushPublishesInOrder(t *testing.T) {
	var got []domain.ChangeEvent
	pub := PublisherFunc(func(ev domain.ChangeEvent) { got = append(got, ev) })

	var b Batch
	item := entities.Item{ID: "i1", FridgeID: "f1", Name: "Milk", Quantity: 2}
	b.Add(domain.EventUpdate, domain.TableItems, "f1", item, nil)
	entry := NewEntry("f1", "a@example.com", entities.ActionWaste, "Milk", "Wasted 1")
	entry.ID = "a1"
	b.Activity(entry)
	require.Len(t, b.Events(), 2)

	b.Flush(pub)
	require.Len(t, got, 2)
	assert.Equal(t, domain.TableItems, got[0].Table)
	assert.Equal(t, domain.TableActivityLogs, got[1].Table)
	assert.Equal(t, domain.EventInsert, got[1].Type)

	var key domain.RowKey
	require.NoError(t, json.Unmarshal(got[1].New, &key))
	assert.Equal(t, "a1", key.ID)
	assert.Empty(t, b.Events())

	b.Flush(nil)
}
