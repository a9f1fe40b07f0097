package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"nomorewaste/domain"
	"nomorewaste/entities"
)

// ExpiringWindowDays is how close to expiry an item counts as expiring soon.
const ExpiringWindowDays = 3

// Freshness reports how many days an item has left. ok is false when it has no expiry.
func Freshness(item entities.Item, now time.Time) (daysLeft int, ok bool) {
	if item.Expiry == nil || item.Expiry.IsZero() {
		return 0, false
	}
	return item.Expiry.DaysUntil(now), true
}

func lineValue(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

// ComputeStats sums money in decimal and rounds each total to cents.
func ComputeStats(inv domain.InventoryResponse, now time.Time) domain.StatsResponse {
	fridge, wasted, consumed := decimal.Zero, decimal.Zero, decimal.Zero
	res := domain.StatsResponse{ItemCount: len(inv.Items)}

	for _, item := range inv.Items {
		fridge = fridge.Add(lineValue(item.Price, item.Quantity))
		days, ok := Freshness(item, now)
		switch {
		case !ok:
		case days < 0:
			res.Expired++
		case days <= ExpiringWindowDays:
			res.ExpiringSoon++
		}
	}
	for _, w := range inv.Waste {
		wasted = wasted.Add(lineValue(w.Price, w.Quantity))
	}
	for _, c := range inv.Consumed {
		consumed = consumed.Add(lineValue(c.Price, c.Quantity))
	}

	res.FridgeValue = fridge.Round(2).InexactFloat64()
	res.WastedLoss = wasted.Round(2).InexactFloat64()
	res.ConsumedValue = consumed.Round(2).InexactFloat64()
	return res
}
