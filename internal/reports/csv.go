// Package reports renders the four CSV exports the dashboard downloads.
// The format follows the original exporter: a fixed header line per kind,
// and embedded commas in values replaced by spaces rather than quoted. The
// files feed spreadsheets that were built around that rule, so it stays.
package reports

import (
	"fmt"
	"strings"
	"time"

	"balepos/internal/models"
	"balepos/internal/store"
)

// Kind names one of the export flavors.
type Kind string

const (
	KindSales     Kind = "sales"
	KindFinancial Kind = "financial"
	KindInventory Kind = "inventory"
	KindCustomers Kind = "customers"
)

const dateLayout = "2006-01-02 15:04"

// SalesRow is one exported order line, already joined to its session and
// product names.
type SalesRow struct {
	Date           time.Time
	Session        string
	Username       string
	Product        string
	Quantity       int
	Total          float64
	Paid           float64
	PaymentStatus  models.PaymentStatus
	ShippingStatus models.ShippingStatus
}

func BuildSalesCSV(rows []SalesRow) string {
	var b strings.Builder
	b.WriteString("Date,Session,Customer,Product,Quantity,Total,Paid,Payment Status,Shipping Status\n")
	for _, r := range rows {
		writeRow(&b,
			r.Date.Format(dateLayout),
			r.Session,
			r.Username,
			r.Product,
			fmt.Sprintf("%d", r.Quantity),
			amount(r.Total),
			amount(r.Paid),
			string(r.PaymentStatus),
			string(r.ShippingStatus),
		)
	}
	return b.String()
}

func BuildFinancialCSV(txs []models.Transaction) string {
	var b strings.Builder
	b.WriteString("Date,Type,Wallet,Category,Note,Amount\n")
	for _, t := range txs {
		writeRow(&b,
			t.CreatedAt.Format(dateLayout),
			t.Type,
			t.Wallet,
			t.Category,
			t.Note,
			amount(t.Amount),
		)
	}
	return b.String()
}

func BuildInventoryCSV(bales []store.BaleOverview) string {
	var b strings.Builder
	b.WriteString("Bale,Status,Cost,Item Count,Sold,Remaining,Revenue,Recovered %,Target Price\n")
	for _, o := range bales {
		writeRow(&b,
			o.Name,
			string(o.Status),
			amount(o.Cost),
			fmt.Sprintf("%d", o.ItemCount),
			fmt.Sprintf("%d", o.Stats.SoldCount),
			fmt.Sprintf("%d", o.Stats.Remaining),
			amount(o.Stats.Revenue),
			fmt.Sprintf("%.1f", o.Stats.Progress),
			amount(o.Stats.TargetPrice),
		)
	}
	return b.String()
}

func BuildCustomersCSV(customers []store.CustomerView) string {
	var b strings.Builder
	b.WriteString("Username,VIP,VIP Tickets,Blacklisted,Total Spent,Order Count\n")
	for _, c := range customers {
		writeRow(&b,
			c.Username,
			yesNo(c.IsVIP),
			fmt.Sprintf("%d", c.VIPTickets),
			yesNo(c.IsBlacklisted),
			amount(c.TotalSpent),
			fmt.Sprintf("%d", c.OrderCount),
		)
	}
	return b.String()
}

// Filename suggests the download name for one export.
func Filename(kind Kind, at time.Time) string {
	return fmt.Sprintf("%s-report-%s.csv", kind, at.Format("2006-01-02"))
}

func writeRow(b *strings.Builder, values ...string) {
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(sanitize(v))
	}
	b.WriteByte('\n')
}

// sanitize keeps a value from breaking the row: commas become spaces.
func sanitize(v string) string {
	return strings.ReplaceAll(v, ",", " ")
}

func amount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
