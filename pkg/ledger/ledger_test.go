package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomorewaste/domain"
	"nomorewaste/entities"
)

func intPtr(v int) *int { return &v }

func TestSplit_PartialWaste(t *testing.T) {
	milk := entities.Item{ID: "i1", FridgeID: "f1", Name: "Milk", Category: "Dairy", Price: 2.50, Quantity: 3}

	out, err := Split(milk, 1, Wasted)
	require.NoError(t, err)
	assert.False(t, out.Removed)
	assert.Equal(t, 2, out.Item.Quantity)
	assert.Equal(t, "i1", out.Item.ID)
	assert.Equal(t, 1, out.Entry.Quantity)
	assert.Equal(t, 2.50, out.Entry.Price)
	assert.Equal(t, "Milk", out.Entry.Name)
	assert.Equal(t, "f1", out.Entry.FridgeID)
	assert.Equal(t, 3, milk.Quantity, "input item must not be modified")
}

func TestRemove_ConsumeDefaultsOnSingleUnit(t *testing.T) {
	egg := entities.Item{ID: "i2", Name: "Egg", Price: 4.00, Quantity: 1}

	out, err := Remove(egg, nil, Consumed)
	require.NoError(t, err)
	assert.True(t, out.Removed)
	assert.Equal(t, 0, out.Remaining())
	assert.Equal(t, 1, out.Entry.Quantity)
	assert.Equal(t, 4.00, out.Entry.Price)
}

func TestResolveAmount(t *testing.T) {
	tests := []struct {
		name      string
		d         Disposition
		quantity  int
		requested *int
		want      int
		wantErr   error
	}{
		{"consume default multi-unit", Consumed, 5, nil, 1, nil},
		{"consume default single", Consumed, 1, nil, 1, nil},
		{"waste single unit without prompt", Wasted, 1, nil, 1, nil},
		{"waste multi-unit needs amount", Wasted, 4, nil, 0, domain.ErrAmountRequired},
		{"explicit amount passes through", Wasted, 4, intPtr(3), 3, nil},
		{"unknown disposition", Disposition("eaten"), 2, nil, 0, domain.ErrInvalidDisposition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAmount(tt.d, tt.quantity, tt.requested)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplit_RejectsOutOfRange(t *testing.T) {
	item := entities.Item{ID: "i3", Name: "Yogurt", Quantity: 2}
	for _, amount := range []int{-1, 0, 3, 10} {
		_, err := Split(item, amount, Wasted)
		assert.ErrorIs(t, err, domain.ErrAmountOutOfRange, "amount %d", amount)
	}
	assert.Equal(t, 2, item.Quantity)
}

func TestSplit_ConservesQuantity(t *testing.T) {
	for q := 1; q <= 6; q++ {
		for a := 1; a <= q; a++ {
			for _, d := range []Disposition{Consumed, Wasted} {
				out, err := Split(entities.Item{ID: "x", Quantity: q}, a, d)
				require.NoError(t, err)
				assert.Equal(t, q, out.Remaining()+out.Entry.Quantity)
				assert.Equal(t, a == q, out.Removed)
				assert.LessOrEqual(t, out.Entry.Quantity, q)
			}
		}
	}
}

func TestOutcome_Logs(t *testing.T) {
	at := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	out, err := Split(entities.Item{ID: "i", FridgeID: "f", Name: "Bread", Category: "Bakery", Price: 3.2, Quantity: 2}, 2, Consumed)
	require.NoError(t, err)

	c := out.ConsumedLog("c1", at)
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, at, c.ConsumedAt)
	assert.Equal(t, 2, c.Quantity)

	w := out.WasteLog("w1", at)
	assert.Equal(t, "w1", w.ID)
	assert.Equal(t, "Bakery", w.Category)
}

func TestParseDisposition(t *testing.T) {
	d, err := ParseDisposition("wasted")
	require.NoError(t, err)
	assert.Equal(t, Wasted, d)

	_, err = ParseDisposition("lost")
	assert.ErrorIs(t, err, domain.ErrInvalidDisposition)
}
