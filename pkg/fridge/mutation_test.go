package fridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomorewaste/domain"
	"nomorewaste/entities"
	"nomorewaste/pkg/ids"
	"nomorewaste/pkg/ledger"
)

func intPtr(v int) *int { return &v }

func TestSplitLocal_PartialWaste(t *testing.T) {
	s := Snapshot{Items: []entities.Item{{ID: "milk", Name: "Milk", Quantity: 3, Price: 2.50}}}
	at := time.Now()

	next, out, err := SplitLocal(s, "milk", intPtr(1), ledger.Wasted, "tmp_w", at)
	require.NoError(t, err)
	assert.False(t, out.Removed)
	require.Len(t, next.Items, 1)
	assert.Equal(t, 2, next.Items[0].Quantity)
	require.Len(t, next.Waste, 1)
	assert.Equal(t, 1, next.Waste[0].Quantity)
	assert.Equal(t, 2.50, next.Waste[0].Price)
	assert.Equal(t, at, next.Waste[0].WastedAt)
	assert.Equal(t, 3, s.Items[0].Quantity)
}

func TestSplitLocal_ConsumeSingleRemoves(t *testing.T) {
	s := Snapshot{Items: []entities.Item{{ID: "egg", Name: "Egg", Quantity: 1, Price: 4.00}}}

	next, out, err := SplitLocal(s, "egg", nil, ledger.Consumed, "tmp_c", time.Now())
	require.NoError(t, err)
	assert.True(t, out.Removed)
	assert.Empty(t, next.Items)
	require.Len(t, next.Consumed, 1)
	assert.Equal(t, 1, next.Consumed[0].Quantity)
	assert.Equal(t, 4.00, next.Consumed[0].Price)
}

func TestSplitLocal_RejectionsLeaveStateUntouched(t *testing.T) {
	s := Snapshot{Items: []entities.Item{{ID: "y", Quantity: 2}}}

	for _, amount := range []*int{intPtr(0), intPtr(3), nil} {
		next, _, err := SplitLocal(s, "y", amount, ledger.Wasted, "tmp", time.Now())
		require.Error(t, err)
		assert.Equal(t, s, next)
	}
	_, _, err := SplitLocal(s, "nope", intPtr(1), ledger.Wasted, "tmp", time.Now())
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestConfirmItem(t *testing.T) {
	tmp := ids.NewTemp()
	s := AddLocal(Snapshot{}, entities.Item{ID: tmp, Name: "Bread"})

	t.Run("substitutes the persisted id", func(t *testing.T) {
		next := ConfirmItem(s, tmp, entities.Item{ID: "srv", Name: "Bread"})
		require.Len(t, next.Items, 1)
		assert.Equal(t, "srv", next.Items[0].ID)
	})

	t.Run("drops the temporary record when the echo came first", func(t *testing.T) {
		echoed, err := ApplyEvent(s, event(t, domain.EventInsert, domain.TableItems, entities.Item{ID: "srv", Name: "Bread"}, nil))
		require.NoError(t, err)
		require.Len(t, echoed.Items, 2)

		next := ConfirmItem(echoed, tmp, entities.Item{ID: "srv", Name: "Bread"})
		require.Len(t, next.Items, 1)
		assert.Equal(t, "srv", next.Items[0].ID)
	})

	t.Run("echo after confirm does not duplicate", func(t *testing.T) {
		next := ConfirmItem(s, tmp, entities.Item{ID: "srv"})
		next, err := ApplyEvent(next, event(t, domain.EventInsert, domain.TableItems, entities.Item{ID: "srv"}, nil))
		require.NoError(t, err)
		assert.Len(t, next.Items, 1)
	})
}

func TestEditAndRemoveLocal(t *testing.T) {
	s := Snapshot{
		Items:    []entities.Item{{ID: "a", Name: "Milk", Emoji: "🥛"}},
		Consumed: []entities.ConsumedLog{{LogEntry: entities.LogEntry{ID: "c", Name: "Egg", Quantity: 2}}},
	}

	s = EditItemLocal(s, "a", domain.UpdateItemRequest{Name: "Skim milk", Price: 1, Quantity: 4, Category: "Dairy"})
	assert.Equal(t, "Skim milk", s.Items[0].Name)
	assert.Equal(t, 4, s.Items[0].Quantity)
	assert.Equal(t, "🥛", s.Items[0].Emoji)

	s = EditLogLocal(s, ledger.Consumed, "c", domain.UpdateLogRequest{Name: "Eggs", Quantity: 1, Category: "Dairy"})
	assert.Equal(t, "Eggs", s.Consumed[0].Name)
	assert.Equal(t, 1, s.Consumed[0].Quantity)

	s = MarkUnconfirmed(s, "offline", "a")
	assert.True(t, s.IsUnconfirmed("a"))
	s = RemoveItemLocal(s, "a")
	s = RemoveItemLocal(s, "a")
	assert.Empty(t, s.Items)
	assert.False(t, s.IsUnconfirmed("a"))

	s = RemoveLogLocal(s, ledger.Consumed, "c")
	assert.Empty(t, s.Consumed)
}
