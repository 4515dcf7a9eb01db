// Package orders turns the flat per-line order rows into the per-customer
// aggregates the dashboard edits, and distributes aggregate-level payment
// edits back onto the constituent rows.
package orders

import (
	"sort"
	"strings"

	"balepos/internal/auditlog"
	"balepos/internal/models"
)

// PaidTolerance absorbs float rounding when classifying a distributed
// payment as Paid vs Partial.
const PaidTolerance = 0.01

// Group is one customer's consolidated order inside a session. The base
// fields (payment status, method, reference) come from a representative
// row; Items carries every constituent row and IDs their identifiers so an
// edit can be propagated back.
type Group struct {
	Username       string                `json:"username"`
	CustomerID     uint                  `json:"customer_id"`
	SessionID      uint                  `json:"session_id"`
	Quantity       int                   `json:"quantity"`
	TotalPrice     float64               `json:"total_price"`
	AmountPaid     float64               `json:"amount_paid"`
	PaymentStatus  models.PaymentStatus  `json:"payment_status"`
	ShippingStatus models.ShippingStatus `json:"shipping_status"`
	PaymentMethod  string                `json:"payment_method"`
	Reference      string                `json:"reference_number"`
	Items          []models.Order        `json:"items"`
	IDs            []uint                `json:"ids"`
	Logs           []string              `json:"logs"`
}

// Consolidate groups a session's orders by customer username. Usernames are
// matched case-insensitively (the old dashboard stored them case-sensitive
// but aggregated them inconsistently; one rule now). Groups come back in
// first-appearance order, items in input order.
func Consolidate(orders []models.Order) []Group {
	byUser := make(map[string]*Group)
	var keys []string

	for _, o := range orders {
		key := strings.ToLower(o.Username)
		g, ok := byUser[key]
		if !ok {
			g = &Group{
				Username:       o.Username,
				CustomerID:     o.CustomerID,
				SessionID:      o.SessionID,
				PaymentStatus:  o.PaymentStatus,
				ShippingStatus: o.ShippingStatus,
				PaymentMethod:  o.PaymentMethod,
				Reference:      o.ReferenceNumber,
			}
			byUser[key] = g
			keys = append(keys, key)
		}
		g.Quantity += o.Quantity
		g.TotalPrice += o.TotalPrice
		g.AmountPaid += o.AmountPaid
		g.Items = append(g.Items, o)
		g.IDs = append(g.IDs, o.ID)
		g.Logs = append(g.Logs, renderLogs(o.Logs)...)
	}

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		g := byUser[k]
		g.Logs = dedupe(g.Logs)
		groups = append(groups, *g)
	}
	return groups
}

// renderLogs encodes an order's structured log rows as display lines, one
// per save (rows sharing a timestamp were written together).
func renderLogs(logs []models.OrderLog) []string {
	if len(logs) == 0 {
		return nil
	}
	sorted := make([]models.OrderLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].LoggedAt.Before(sorted[j].LoggedAt) })

	var lines []string
	var changes []auditlog.Change
	current := sorted[0].LoggedAt
	flush := func() {
		if len(changes) > 0 {
			lines = append(lines, auditlog.Encode(current, changes))
			changes = nil
		}
	}
	for _, l := range sorted {
		if !l.LoggedAt.Equal(current) {
			flush()
			current = l.LoggedAt
		}
		changes = append(changes, auditlog.Change{Field: l.Field, Old: l.OldValue, New: l.NewValue})
	}
	flush()
	return lines
}

// dedupe drops exact-duplicate lines. The same change line is appended to
// every row in a group, so a rebuilt aggregate would otherwise show it once
// per item.
func dedupe(lines []string) []string {
	seen := make(map[string]bool, len(lines))
	out := lines[:0]
	for _, l := range lines {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// Settlement is the per-item result of applying a group-level payment edit.
type Settlement struct {
	OrderID    uint
	AmountPaid float64
	Status     models.PaymentStatus
}

// Settle distributes a group-level payment edit across the constituent
// items:
//
//   - Paid: every item settles in full against its own total.
//   - Unpaid: every item drops to zero.
//   - Partial: the entered aggregate amount is split proportionally to each
//     item's total, and each item is re-classified Paid / Partial / Unpaid
//     on its own share with PaidTolerance absorbing rounding.
// Freebies are untouched: they are zero-priced and stay Paid.
func Settle(items []models.Order, status models.PaymentStatus, amountPaid float64) []Settlement {
	out := make([]Settlement, 0, len(items))

	switch status {
	case models.PaymentPaid:
		for _, it := range items {
			out = append(out, Settlement{OrderID: it.ID, AmountPaid: it.TotalPrice, Status: models.PaymentPaid})
		}
	case models.PaymentUnpaid:
		for _, it := range items {
			if it.IsFreebie {
				out = append(out, Settlement{OrderID: it.ID, AmountPaid: 0, Status: models.PaymentPaid})
				continue
			}
			out = append(out, Settlement{OrderID: it.ID, AmountPaid: 0, Status: models.PaymentUnpaid})
		}
	default: // Partial
		var total float64
		for _, it := range items {
			total += it.TotalPrice
		}
		ratio := 0.0
		if total > 0 {
			ratio = amountPaid / total
		}
		for _, it := range items {
			if it.IsFreebie {
				out = append(out, Settlement{OrderID: it.ID, AmountPaid: 0, Status: models.PaymentPaid})
				continue
			}
			paid := it.TotalPrice * ratio
			out = append(out, Settlement{OrderID: it.ID, AmountPaid: paid, Status: Classify(paid, it.TotalPrice)})
		}
	}
	return out
}

// Classify decides an item's payment status from what it has paid against
// what it owes.
func Classify(paid, total float64) models.PaymentStatus {
	switch {
	case paid >= total-PaidTolerance && total > 0:
		return models.PaymentPaid
	case paid == 0:
		return models.PaymentUnpaid
	default:
		return models.PaymentPartial
	}
}
