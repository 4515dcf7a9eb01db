package handlers

import (
	"fmt"
	"net/http"
	"time"

	"balepos/internal/models"
	"balepos/internal/reports"

	"github.com/gin-gonic/gin"
)

// --- GET: Dashboard summary ---
// Revenue and order count over a range, the best bales, and where the money
// went per wallet. Defaults to the last 30 days.
func (h *Handler) GetDashboardSummary(c *gin.Context) {
	start, end, err := reportRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be YYYY-MM-DD"})
		return
	}

	summary, err := h.store.SalesSummary(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}
	topBales, err := h.store.TopBales(c.Request.Context(), 5)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rank bales"})
		return
	}
	flows, err := h.store.WalletFlows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sum wallets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"start":         start.Format("2006-01-02"),
		"end":           end.Format("2006-01-02"),
		"total_revenue": summary.TotalRevenue,
		"total_orders":  summary.TotalOrders,
		"top_bales":     topBales,
		"wallet_flows":  flows,
	})
}

// --- GET: CSV export ---
// /reports/export/:kind downloads one of the four spreadsheet feeds.
func (h *Handler) ExportCSV(c *gin.Context) {
	kind := reports.Kind(c.Param("kind"))
	ctx := c.Request.Context()

	var csv string
	switch kind {
	case reports.KindSales:
		rows, err := h.salesExportRows(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build sales export"})
			return
		}
		csv = reports.BuildSalesCSV(rows)

	case reports.KindFinancial:
		txs, err := h.store.ListTransactions(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build financial export"})
			return
		}
		csv = reports.BuildFinancialCSV(txs)

	case reports.KindInventory:
		overviews, err := h.store.BaleOverviews(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build inventory export"})
			return
		}
		csv = reports.BuildInventoryCSV(overviews)

	case reports.KindCustomers:
		customers, err := h.store.ListCustomers(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build customers export"})
			return
		}
		csv = reports.BuildCustomersCSV(customers)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown report kind"})
		return
	}

	filename := reports.Filename(kind, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", []byte(csv))
}

// salesExportRows joins orders to their product and session names. Orders
// with SessionID 0 report the OFF_LIVE label since no session row exists.
func (h *Handler) salesExportRows(c *gin.Context) ([]reports.SalesRow, error) {
	start, end, err := reportRange(c)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		CreatedAt      time.Time
		SessionName    string
		Username       string
		ProductName    string
		Quantity       int
		TotalPrice     float64
		AmountPaid     float64
		PaymentStatus  models.PaymentStatus
		ShippingStatus models.ShippingStatus
	}
	err = h.store.DB().WithContext(c.Request.Context()).Table("orders").
		Select("orders.created_at, COALESCE(live_sessions.name, ?) AS session_name, orders.username, products.name AS product_name, orders.quantity, orders.total_price, orders.amount_paid, orders.payment_status, orders.shipping_status",
			models.OffLiveSession).
		Joins("JOIN products ON products.id = orders.product_id").
		Joins("LEFT JOIN live_sessions ON live_sessions.id = orders.session_id").
		Where("orders.created_at BETWEEN ? AND ?", start, end).
		Order("orders.created_at").
		Scan(&raw).Error
	if err != nil {
		return nil, err
	}

	rows := make([]reports.SalesRow, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, reports.SalesRow{
			Date:           r.CreatedAt,
			Session:        r.SessionName,
			Username:       r.Username,
			Product:        r.ProductName,
			Quantity:       r.Quantity,
			Total:          r.TotalPrice,
			Paid:           r.AmountPaid,
			PaymentStatus:  r.PaymentStatus,
			ShippingStatus: r.ShippingStatus,
		})
	}
	return rows, nil
}

// reportRange parses optional ?start=YYYY-MM-DD&end=YYYY-MM-DD, defaulting
// to the last 30 days. The end date is inclusive.
func reportRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	start := now.AddDate(0, 0, -30)
	end := now

	if v := c.Query("start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return start, end, err
		}
		start = t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return start, end, err
		}
		end = t.Add(24*time.Hour - time.Second)
	}
	return start, end, nil
}
