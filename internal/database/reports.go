package database

import (
	"time"

	"balepos/internal/models"

	"gorm.io/gorm"
)

// SalesSummary is the headline pair the dashboard and the AI assistant ask
// for: revenue and order count over a date range. Cancelled and RTS orders
// never count as sales.
type SalesSummary struct {
	TotalRevenue float64
	TotalOrders  int64
}

var notSold = []models.ShippingStatus{models.ShippingCancelled, models.ShippingRTS}

// GetSalesSummary aggregates sales within a date range.
// COALESCE keeps a sale-free range at 0 instead of NULL.
func GetSalesSummary(db *gorm.DB, start, end time.Time) (*SalesSummary, error) {
	var result SalesSummary

	err := db.Model(&models.Order{}).
		Where("created_at BETWEEN ? AND ? AND shipping_status NOT IN ?", start, end, notSold).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&result.TotalRevenue).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.Order{}).
		Where("created_at BETWEEN ? AND ? AND shipping_status NOT IN ?", start, end, notSold).
		Count(&result.TotalOrders).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// TopBale is one row of the best-performing-bales board.
type TopBale struct {
	BaleName string  `json:"bale_name"`
	Sold     int     `json:"sold"`
	Revenue  float64 `json:"revenue"`
}

// GetTopBales ranks bales by revenue across all non-cancelled orders.
func GetTopBales(db *gorm.DB, limit int) ([]TopBale, error) {
	var rows []TopBale
	err := db.Table("orders").
		Select("bales.name AS bale_name, SUM(orders.quantity) AS sold, SUM(orders.total_price) AS revenue").
		Joins("JOIN products ON products.id = orders.product_id").
		Joins("JOIN bales ON bales.id = products.bale_id").
		Where("orders.shipping_status NOT IN ?", notSold).
		Group("bales.name").
		Order("revenue desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// WalletFlow sums the accounting ledger per wallet.
type WalletFlow struct {
	Wallet string  `json:"wallet"`
	Out    float64 `json:"out"`
}

func GetWalletFlows(db *gorm.DB) ([]WalletFlow, error) {
	var rows []WalletFlow
	err := db.Model(&models.Transaction{}).
		Select("wallet, COALESCE(SUM(amount), 0) AS `out`").
		Group("wallet").
		Scan(&rows).Error
	return rows, err
}
