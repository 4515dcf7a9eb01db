package bale

import (
	"testing"

	"balepos/internal/models"

	"github.com/stretchr/testify/assert"
)

func order(qty int, total float64, shipping models.ShippingStatus) models.Order {
	return models.Order{Quantity: qty, TotalPrice: total, ShippingStatus: shipping}
}

func TestCompute_ExcludesCancelledAndRTS(t *testing.T) {
	b := models.Bale{Cost: 1000, ItemCount: 10}
	orders := []models.Order{
		order(3, 300, models.ShippingPending),
		order(2, 200, models.ShippingShipped),
		order(4, 400, models.ShippingCancelled),
		order(1, 100, models.ShippingRTS),
	}

	s := Compute(b, orders)
	assert.Equal(t, 5, s.SoldCount)
	assert.Equal(t, 500.0, s.Revenue)
	assert.Equal(t, 5, s.Remaining)
}

func TestCompute_ProgressCappedAt100(t *testing.T) {
	b := models.Bale{Cost: 100, ItemCount: 10}
	s := Compute(b, []models.Order{order(3, 450, models.ShippingPending)})

	assert.Equal(t, 100.0, s.Progress)
	assert.True(t, s.IsProfitable)
}

func TestCompute_TargetPriceRecoversRemainingCapital(t *testing.T) {
	b := models.Bale{Cost: 1000, ItemCount: 10}
	s := Compute(b, []models.Order{order(5, 600, models.ShippingPending)})

	// 400 still to recover across 5 remaining items
	assert.Equal(t, 80.0, s.TargetPrice)
	assert.False(t, s.IsProfitable)
}

func TestCompute_TargetPriceZeroOnceCostRecovered(t *testing.T) {
	b := models.Bale{Cost: 500, ItemCount: 10}
	s := Compute(b, []models.Order{order(4, 700, models.ShippingPending)})

	assert.Equal(t, 0.0, s.TargetPrice)
}

func TestCompute_RemainingNeverNegative(t *testing.T) {
	b := models.Bale{Cost: 500, ItemCount: 3}
	s := Compute(b, []models.Order{order(5, 700, models.ShippingPending)})

	assert.Equal(t, 0, s.Remaining)
	assert.Equal(t, 5, s.SoldCount)
}

func TestNextStatus(t *testing.T) {
	cases := []struct {
		name      string
		current   models.BaleStatus
		sold      int
		itemCount int
		want      models.BaleStatus
	}{
		{"flips to sold out exactly at capacity", models.BaleOnSale, 10, 10, models.BaleSoldOut},
		{"flips to sold out above capacity", models.BaleOnSale, 12, 10, models.BaleSoldOut},
		{"no sold out on zero item count", models.BaleOrdered, 5, 0, models.BaleOrdered},
		{"demotes sold out back to on sale", models.BaleSoldOut, 9, 10, models.BaleOnSale},
		{"demotes ordered on first sale", models.BaleOrdered, 1, 10, models.BaleOnSale},
		{"demotes arrived on first sale", models.BaleArrived, 1, 10, models.BaleOnSale},
		{"on sale stays on sale", models.BaleOnSale, 5, 10, models.BaleOnSale},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextStatus(tc.current, tc.sold, tc.itemCount))
		})
	}
}
