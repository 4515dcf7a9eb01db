// Package bale derives everything about a bale that is not stored: how many
// items left the rack, how much money came back, and what status the bale
// should be in. All functions are pure over a snapshot of orders so the
// store can recompute after every mutation without extra queries.
package bale

import "balepos/internal/models"

// Stats is the derived view of one bale against its orders.
type Stats struct {
	SoldCount    int     `json:"sold_count"`
	Revenue      float64 `json:"revenue"`
	Remaining    int     `json:"remaining"`
	Progress     float64 `json:"progress"`      // % of capital recovered, capped at 100
	IsProfitable bool    `json:"is_profitable"` // revenue >= cost
	TargetPrice  float64 `json:"target_price"`  // per-unit price to recover remaining capital
}

// CountsTowardSold reports whether an order still occupies bale capacity.
// Cancelled and RTS orders put their items back on the rack, so they are
// excluded from both the sold count and the revenue.
func CountsTowardSold(o models.Order) bool {
	return o.ShippingStatus != models.ShippingCancelled && o.ShippingStatus != models.ShippingRTS
}

// Compute derives the stats for one bale from the orders placed against its
// products. Callers pass only orders whose product belongs to this bale.
func Compute(b models.Bale, orders []models.Order) Stats {
	var s Stats
	for _, o := range orders {
		if !CountsTowardSold(o) {
			continue
		}
		s.SoldCount += o.Quantity
		s.Revenue += o.TotalPrice
	}

	s.Remaining = b.ItemCount - s.SoldCount
	if s.Remaining < 0 {
		s.Remaining = 0
	}

	if b.Cost > 0 {
		s.Progress = s.Revenue / b.Cost * 100
		if s.Progress > 100 {
			s.Progress = 100
		}
	}
	s.IsProfitable = s.Revenue >= b.Cost

	if s.Remaining > 0 {
		shortfall := b.Cost - s.Revenue
		if shortfall < 0 {
			shortfall = 0
		}
		s.TargetPrice = shortfall / float64(s.Remaining)
	}
	return s
}

// NextStatus applies the automatic status policy after an order mutation:
//
//   - Sold Out once soldCount >= itemCount (itemCount > 0).
//   - Back to On Sale when soldCount drops under itemCount, but only from
//     Ordered, Arrived or Sold Out. A bale never auto-promotes to Arrived
//     or Ordered; only a human sets those.
func NextStatus(current models.BaleStatus, soldCount, itemCount int) models.BaleStatus {
	if itemCount > 0 && soldCount >= itemCount {
		return models.BaleSoldOut
	}
	switch current {
	case models.BaleOrdered, models.BaleArrived, models.BaleSoldOut:
		if soldCount < itemCount {
			return models.BaleOnSale
		}
	}
	return current
}
