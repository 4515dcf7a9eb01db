package orders

import (
	"testing"
	"time"

	"balepos/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestConsolidate_GroupsByUsernameCaseInsensitive(t *testing.T) {
	rows := []models.Order{
		{ID: 1, Username: "anna", Quantity: 2, TotalPrice: 200, AmountPaid: 200, PaymentStatus: models.PaymentPaid},
		{ID: 2, Username: "Ben", Quantity: 1, TotalPrice: 150, AmountPaid: 0, PaymentStatus: models.PaymentUnpaid},
		{ID: 3, Username: "Anna", Quantity: 1, TotalPrice: 100, AmountPaid: 50, PaymentStatus: models.PaymentPartial},
	}

	groups := Consolidate(rows)
	assert.Len(t, groups, 2)

	anna := groups[0]
	assert.Equal(t, "anna", anna.Username)
	assert.Equal(t, 3, anna.Quantity)
	assert.Equal(t, 300.0, anna.TotalPrice)
	assert.Equal(t, 250.0, anna.AmountPaid)
	assert.Equal(t, []uint{1, 3}, anna.IDs)

	// Aggregation round-trip: group total equals the sum of its items.
	var sum float64
	for _, it := range anna.Items {
		sum += it.TotalPrice
	}
	assert.Equal(t, anna.TotalPrice, sum)
}

func TestConsolidate_MergesAndDedupesLogs(t *testing.T) {
	ts := time.Date(2026, 5, 14, 21, 30, 5, 0, time.UTC)
	logRow := func(orderID uint) models.OrderLog {
		return models.OrderLog{OrderID: orderID, Field: "Status", OldValue: "Unpaid", NewValue: "Paid", LoggedAt: ts}
	}
	rows := []models.Order{
		{ID: 1, Username: "cara", TotalPrice: 100, Logs: []models.OrderLog{logRow(1)}},
		{ID: 2, Username: "cara", TotalPrice: 100, Logs: []models.OrderLog{logRow(2)}},
	}

	groups := Consolidate(rows)
	assert.Len(t, groups, 1)
	// The same change was written to both rows; the display shows it once.
	assert.Equal(t, []string{"[2026-05-14 21:30:05] Status: Unpaid -> Paid"}, groups[0].Logs)
}

func TestSettle_PaidSettlesEachItemInFull(t *testing.T) {
	items := []models.Order{
		{ID: 1, TotalPrice: 300},
		{ID: 2, TotalPrice: 200},
	}
	got := Settle(items, models.PaymentPaid, 0)
	assert.Equal(t, []Settlement{
		{OrderID: 1, AmountPaid: 300, Status: models.PaymentPaid},
		{OrderID: 2, AmountPaid: 200, Status: models.PaymentPaid},
	}, got)
}

func TestSettle_UnpaidZeroesEveryItem(t *testing.T) {
	items := []models.Order{{ID: 1, TotalPrice: 300, AmountPaid: 300}}
	got := Settle(items, models.PaymentUnpaid, 0)
	assert.Equal(t, []Settlement{{OrderID: 1, AmountPaid: 0, Status: models.PaymentUnpaid}}, got)
}

func TestSettle_PartialDistributesProportionally(t *testing.T) {
	// Group total 500, tendered 250: every item settles at half.
	items := []models.Order{
		{ID: 1, TotalPrice: 300},
		{ID: 2, TotalPrice: 200},
	}
	got := Settle(items, models.PaymentPartial, 250)

	assert.InDelta(t, 150.0, got[0].AmountPaid, 1e-9)
	assert.InDelta(t, 100.0, got[1].AmountPaid, 1e-9)
	assert.Equal(t, models.PaymentPartial, got[0].Status)
	assert.Equal(t, models.PaymentPartial, got[1].Status)
}

func TestSettle_PartialFullAmountClassifiesPaid(t *testing.T) {
	items := []models.Order{
		{ID: 1, TotalPrice: 300},
		{ID: 2, TotalPrice: 200},
	}
	got := Settle(items, models.PaymentPartial, 500)
	assert.Equal(t, models.PaymentPaid, got[0].Status)
	assert.Equal(t, models.PaymentPaid, got[1].Status)
}

func TestSettle_PartialZeroClassifiesUnpaid(t *testing.T) {
	items := []models.Order{{ID: 1, TotalPrice: 300}}
	got := Settle(items, models.PaymentPartial, 0)
	assert.Equal(t, models.PaymentUnpaid, got[0].Status)
	assert.Equal(t, 0.0, got[0].AmountPaid)
}

func TestSettle_FreebieStaysPaid(t *testing.T) {
	items := []models.Order{
		{ID: 1, TotalPrice: 300},
		{ID: 2, TotalPrice: 0, IsFreebie: true},
	}
	got := Settle(items, models.PaymentUnpaid, 0)
	assert.Equal(t, models.PaymentUnpaid, got[0].Status)
	assert.Equal(t, models.PaymentPaid, got[1].Status)
}

func TestClassify_Tolerance(t *testing.T) {
	assert.Equal(t, models.PaymentPaid, Classify(299.995, 300))
	assert.Equal(t, models.PaymentPartial, Classify(299.98, 300))
	assert.Equal(t, models.PaymentUnpaid, Classify(0, 300))
}
