package reports

import (
	"strings"
	"testing"
	"time"

	"balepos/internal/bale"
	"balepos/internal/models"
	"balepos/internal/store"

	"github.com/stretchr/testify/assert"
)

func TestBuildSalesCSV_HeaderAndRow(t *testing.T) {
	rows := []SalesRow{{
		Date:           time.Date(2026, 6, 1, 20, 15, 0, 0, time.UTC),
		Session:        "Friday Night Live",
		Username:       "anna",
		Product:        "Bale A @ 100.00",
		Quantity:       2,
		Total:          200,
		Paid:           100,
		PaymentStatus:  models.PaymentPartial,
		ShippingStatus: models.ShippingPending,
	}}

	out := BuildSalesCSV(rows)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "Date,Session,Customer,Product,Quantity,Total,Paid,Payment Status,Shipping Status", lines[0])
	assert.Equal(t, "2026-06-01 20:15,Friday Night Live,anna,Bale A @ 100.00,2,200.00,100.00,Partial,Pending", lines[1])
}

func TestSanitize_CommasBecomeSpaces(t *testing.T) {
	txs := []models.Transaction{{
		Type:      "Expense",
		Wallet:    "GCash",
		Category:  "Shipping",
		Note:      "boxes, tape, labels",
		Amount:    350,
		CreatedAt: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
	}}

	out := BuildFinancialCSV(txs)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "2026-06-01 09:00,Expense,GCash,Shipping,boxes  tape  labels,350.00", lines[1])
	// Every line still has the same column count.
	assert.Len(t, strings.Split(lines[1], ","), 6)
}

func TestBuildInventoryCSV(t *testing.T) {
	bales := []store.BaleOverview{{
		Bale: models.Bale{Name: "Bale A", Status: models.BaleOnSale, Cost: 1000, ItemCount: 10},
		Stats: bale.Stats{
			SoldCount: 5, Revenue: 600, Remaining: 5, Progress: 60, TargetPrice: 80,
		},
	}}

	out := BuildInventoryCSV(bales)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "Bale A,On Sale,1000.00,10,5,5,600.00,60.0,80.00", lines[1])
}

func TestBuildCustomersCSV(t *testing.T) {
	customers := []store.CustomerView{{
		Customer:   models.Customer{Username: "ben", IsVIP: true, VIPTickets: 2},
		TotalSpent: 1234.5,
		OrderCount: 7,
	}}

	out := BuildCustomersCSV(customers)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "ben,Yes,2,No,1234.50,7", lines[1])
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "inventory-report-2026-06-01.csv", Filename(KindInventory, at))
}
