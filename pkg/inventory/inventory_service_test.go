package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"nomorewaste/domain"
	"nomorewaste/entities"
	"nomorewaste/internal/testdb"
	"nomorewaste/pkg/activity"
	"nomorewaste/pkg/ledger"
)

type staticResolver map[string]string

func (r staticResolver) FridgeIDFor(ctx context.Context, userID string) (string, error) {
	id, ok := r[userID]
	if !ok {
		return "", domain.ErrNotAMember
	}
	return id, nil
}

type eventLog struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (l *eventLog) Publish(ev domain.ChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) tables() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Type+" "+ev.Table)
	}
	return out
}

func (l *eventLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

const email = "ana@example.com"

func newService(t *testing.T) (InventoryService, *gorm.DB, *eventLog) {
	t.Helper()
	db := testdb.Open(t)
	events := &eventLog{}
	svc := NewInventoryService(
		NewInventoryRepository(db),
		activity.NewActivityRepository(db),
		staticResolver{"u1": "f1", "u2": "f2"},
		events,
	)
	return svc, db, events
}

func addOne(t *testing.T, svc InventoryService, name string, qty int, price float64) entities.Item {
	t.Helper()
	res, err := svc.AddItems(context.Background(), domain.AddItemsRequest{Items: []domain.NewItemRequest{
		{Name: name, Price: price, Quantity: qty, Category: "Dairy"},
	}}, "u1", email)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	return res.Items[0]
}

func intPtr(n int) *int { return &n }

func TestAddItems_BatchWithOneActivityEntry(t *testing.T) {
	svc, _, events := newService(t)
	ctx := context.Background()
	exp, err := entities.ParseDate("2025-01-10")
	require.NoError(t, err)

	res, err := svc.AddItems(ctx, domain.AddItemsRequest{Items: []domain.NewItemRequest{
		{Name: "Bread", Price: 3.2, Quantity: 1, Category: "Bakery", Expiry: &exp},
		{Name: "Milk", Price: 2.5, Quantity: 2, Category: "Dairy", Emoji: "🥛"},
		{Name: "Mystery", Price: 1, Quantity: 1},
	}}, "u1", email)
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	for _, item := range res.Items {
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "f1", item.FridgeID)
	}
	assert.Equal(t, "Other", res.Items[2].Category)
	assert.Equal(t, "📦", res.Items[2].Emoji)

	inv, err := svc.GetInventory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, inv.Items, 3)
	byName := map[string]entities.Item{}
	for _, item := range inv.Items {
		byName[item.Name] = item
	}
	assert.Equal(t, "2025-01-10", byName["Bread"].Expiry.String())
	assert.Equal(t, 3.2, byName["Bread"].Price)
	assert.Equal(t, 2, byName["Milk"].Quantity)

	require.Len(t, inv.Activity, 1)
	assert.Equal(t, entities.ActionAdd, inv.Activity[0].ActionType)
	assert.Contains(t, inv.Activity[0].Details, "3")
	assert.Equal(t, email, inv.Activity[0].UserEmail)

	assert.Equal(t, []string{
		"INSERT items", "INSERT items", "INSERT items", "INSERT activity_logs",
	}, events.tables())
}

func TestAddItems_RejectsEmptyBatchAndStrangers(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItems(ctx, domain.AddItemsRequest{}, "u1", email)
	assert.ErrorIs(t, err, domain.ErrNoItems)

	_, err = svc.AddItems(ctx, domain.AddItemsRequest{Items: []domain.NewItemRequest{{Name: "x", Quantity: 1}}}, "nobody", email)
	assert.ErrorIs(t, err, domain.ErrNotAMember)
}

func TestSplit_WastePartOfMultiUnitItem(t *testing.T) {
	svc, _, events := newService(t)
	ctx := context.Background()
	milk := addOne(t, svc, "Milk", 3, 2.50)
	events.reset()

	res, err := svc.Split(ctx, milk.ID, ledger.Wasted, domain.SplitRequest{Amount: intPtr(1)}, "u1", email)
	require.NoError(t, err)
	assert.False(t, res.Removed)
	require.NotNil(t, res.Item)
	assert.Equal(t, 2, res.Item.Quantity)
	require.NotNil(t, res.Waste)
	assert.Equal(t, 1, res.Waste.Quantity)
	assert.Equal(t, 2.50, res.Waste.Price)
	assert.NotEmpty(t, res.Waste.ID)

	inv, err := svc.GetInventory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, 2, inv.Items[0].Quantity)
	require.Len(t, inv.Waste, 1)
	assert.Equal(t, 1, inv.Waste[0].Quantity)
	assert.Empty(t, inv.Consumed)

	assert.Equal(t, []string{"UPDATE items", "INSERT waste_logs", "INSERT activity_logs"}, events.tables())
}

func TestSplit_ConsumeSingleUnitRemovesItem(t *testing.T) {
	svc, _, events := newService(t)
	ctx := context.Background()
	egg := addOne(t, svc, "Egg", 1, 4.00)
	events.reset()

	res, err := svc.Split(ctx, egg.ID, ledger.Consumed, domain.SplitRequest{}, "u1", email)
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.Nil(t, res.Item)
	require.NotNil(t, res.Consumed)
	assert.Equal(t, 1, res.Consumed.Quantity)
	assert.Equal(t, 4.00, res.Consumed.Price)

	inv, err := svc.GetInventory(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, inv.Items)
	assert.Len(t, inv.Consumed, 1)

	assert.Equal(t, []string{"DELETE items", "INSERT consumed_logs", "INSERT activity_logs"}, events.tables())
}

func TestSplit_ConstraintViolationsLeaveStateUntouched(t *testing.T) {
	svc, _, events := newService(t)
	ctx := context.Background()
	milk := addOne(t, svc, "Milk", 3, 2.50)
	events.reset()

	_, err := svc.Split(ctx, milk.ID, ledger.Wasted, domain.SplitRequest{}, "u1", email)
	assert.ErrorIs(t, err, domain.ErrAmountRequired)
	_, err = svc.Split(ctx, milk.ID, ledger.Wasted, domain.SplitRequest{Amount: intPtr(0)}, "u1", email)
	assert.ErrorIs(t, err, domain.ErrAmountOutOfRange)
	_, err = svc.Split(ctx, milk.ID, ledger.Wasted, domain.SplitRequest{Amount: intPtr(4)}, "u1", email)
	assert.ErrorIs(t, err, domain.ErrAmountOutOfRange)
	_, err = svc.Split(ctx, "missing", ledger.Consumed, domain.SplitRequest{}, "u1", email)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	_, err = svc.Split(ctx, milk.ID, ledger.Consumed, domain.SplitRequest{}, "u2", email)
	assert.ErrorIs(t, err, domain.ErrItemNotFound, "items of another household are invisible")

	inv, err := svc.GetInventory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, 3, inv.Items[0].Quantity)
	assert.Empty(t, inv.Waste)
	assert.Len(t, inv.Activity, 1)
	assert.Empty(t, events.tables())
}

func TestSplit_ConservesQuantity(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	item := addOne(t, svc, "Apples", 6, 0.4)

	for _, step := range []struct {
		d      ledger.Disposition
		amount int
	}{
		{ledger.Consumed, 2}, {ledger.Wasted, 1}, {ledger.Consumed, 3},
	} {
		_, err := svc.Split(ctx, item.ID, step.d, domain.SplitRequest{Amount: intPtr(step.amount)}, "u1", email)
		require.NoError(t, err)
	}

	inv, err := svc.GetInventory(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, inv.Items)
	total := 0
	for _, w := range inv.Waste {
		total += w.Quantity
	}
	for _, c := range inv.Consumed {
		total += c.Quantity
	}
	assert.Equal(t, 6, total)
}

func TestUpdateAndDeleteItem(t *testing.T) {
	svc, _, events := newService(t)
	ctx := context.Background()
	milk := addOne(t, svc, "Milk", 3, 2.50)
	events.reset()

	updated, err := svc.UpdateItem(ctx, milk.ID, domain.UpdateItemRequest{
		Name: "Oat milk", Price: 3, Quantity: 5, Category: "Beverage",
	}, "u1", email)
	require.NoError(t, err)
	assert.Equal(t, "Oat milk", updated.Name)
	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, "Beverage", updated.Category)
	assert.Equal(t, milk.Emoji, updated.Emoji)
	assert.Nil(t, updated.Expiry)

	require.NoError(t, svc.DeleteItem(ctx, milk.ID, "u1", email))
	assert.ErrorIs(t, svc.DeleteItem(ctx, milk.ID, "u1", email), domain.ErrItemNotFound)

	_, err = svc.UpdateItem(ctx, milk.ID, domain.UpdateItemRequest{Name: "x", Quantity: 1, Category: "Other"}, "u1", email)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	assert.Equal(t, []string{
		"UPDATE items", "INSERT activity_logs",
		"DELETE items", "INSERT activity_logs",
	}, events.tables())
}

func TestUpdateAndDeleteLog(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	milk := addOne(t, svc, "Milk", 3, 2.50)

	res, err := svc.Split(ctx, milk.ID, ledger.Wasted, domain.SplitRequest{Amount: intPtr(2)}, "u1", email)
	require.NoError(t, err)
	logID := res.Waste.ID

	updated, err := svc.UpdateLog(ctx, ledger.Wasted, logID, domain.UpdateLogRequest{
		Name: "Milk", Price: 2.0, Quantity: 1, Category: "Dairy",
	}, "u1", email)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)
	assert.Equal(t, 2.0, updated.Price)

	_, err = svc.UpdateLog(ctx, ledger.Consumed, logID, domain.UpdateLogRequest{Name: "Milk", Quantity: 1, Category: "Dairy"}, "u1", email)
	assert.ErrorIs(t, err, domain.ErrLogNotFound)

	require.NoError(t, svc.DeleteLog(ctx, ledger.Wasted, logID, "u1", email))
	assert.ErrorIs(t, svc.DeleteLog(ctx, ledger.Wasted, logID, "u1", email), domain.ErrLogNotFound)

	inv, err := svc.GetInventory(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, inv.Waste)
	assert.Equal(t, entities.ActionDeleteHistory, inv.Activity[0].ActionType)
}

func TestGetStats(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	milk := addOne(t, svc, "Milk", 3, 2.50)
	_, err := svc.Split(ctx, milk.ID, ledger.Wasted, domain.SplitRequest{Amount: intPtr(1)}, "u1", email)
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ItemCount)
	assert.Equal(t, 5.0, stats.FridgeValue)
	assert.Equal(t, 2.5, stats.WastedLoss)
}
