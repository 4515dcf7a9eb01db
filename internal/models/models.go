package models

import (
	"fmt"
	"math"
	"time"
)

// BaleStatus tracks a bale through its life: bought wholesale, shipped to us,
// sold item by item during live sessions.
type BaleStatus string

const (
	BaleOrdered BaleStatus = "Ordered"
	BaleArrived BaleStatus = "Arrived"
	BaleOnSale  BaleStatus = "On Sale"
	BaleSoldOut BaleStatus = "Sold Out"
)

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "Unpaid"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

type ShippingStatus string

const (
	ShippingPending   ShippingStatus = "Pending"
	ShippingShipped   ShippingStatus = "Shipped"
	ShippingRTS       ShippingStatus = "RTS"
	ShippingCancelled ShippingStatus = "Cancelled"
)

type DeviceStatus string

const (
	DevicePending  DeviceStatus = "pending"
	DeviceApproved DeviceStatus = "approved"
	DeviceBlocked  DeviceStatus = "blocked"
)

// OffLiveSession is the sentinel session code for manual encoding outside a
// livestream. It has no LiveSession row; orders carry SessionID 0 instead.
const OffLiveSession = "OFF_LIVE"

// User - staff account for the dashboard
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'cashier'
	CreatedAt    time.Time `json:"created_at"`
}

// Bale - one wholesale batch of mixed inventory, tracked as a single
// capital investment with many constituent Products.
type Bale struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `json:"name"`
	Status    BaleStatus `gorm:"size:20" json:"status"`
	Cost      float64    `json:"cost"`
	ItemCount int        `json:"item_count"`
	CreatedAt time.Time  `json:"created_at"`
}

// Product - an inventory row. Live-sell products are synthesized on first
// sale and keyed by SKU (see ProductKey), so repeated sales at the same
// price reuse one row instead of creating one per sale.
type Product struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SKU          string    `gorm:"uniqueIndex;size:64" json:"sku"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand"`
	BaleID       uint      `gorm:"index" json:"bale_id"`
	Category     string    `json:"category"`
	CostPrice    float64   `json:"cost_price"`
	SellingPrice float64   `json:"selling_price"`
	Stock        int       `json:"stock"`
	IsFreebie    bool      `json:"is_freebie"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProductKey identifies a live-sell product row by what it is, not by a
// formatted string: same bale, same price, same freebie flag = same row.
// Price is held in cents so a formatting change can never split a key.
type ProductKey struct {
	BaleID     uint
	PriceCents int64
	Freebie    bool
}

func KeyFor(baleID uint, price float64, freebie bool) ProductKey {
	return ProductKey{
		BaleID:     baleID,
		PriceCents: int64(math.Round(price * 100)),
		Freebie:    freebie,
	}
}

// SKU renders the key as the stable storage identifier.
func (k ProductKey) SKU() string {
	f := 0
	if k.Freebie {
		f = 1
	}
	return fmt.Sprintf("LIVE-%d-%d-%d", k.BaleID, k.PriceCents, f)
}

// Customer - a livestream buyer. totalSpent / orderCount are NOT stored
// here; they are recomputed from Orders on read so there is exactly one
// source of truth for the aggregates.
type Customer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"uniqueIndex;size:100" json:"username"`
	IsVIP         bool      `gorm:"column:is_vip" json:"is_vip"`
	VIPTickets    int       `gorm:"column:vip_tickets" json:"vip_tickets"`
	IsBlacklisted bool      `json:"is_blacklisted"`
	CreatedAt     time.Time `json:"created_at"`
}

// Order - one committed cart line. A customer's "order" in the UI is a
// consolidated group of these rows (see internal/orders).
type Order struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	SessionID       uint           `gorm:"index" json:"session_id"` // 0 = OFF_LIVE
	CustomerID      uint           `gorm:"index" json:"customer_id"`
	Username        string         `gorm:"index;size:100" json:"username"`
	ProductID       uint           `gorm:"index" json:"product_id"`
	Quantity        int            `json:"quantity"`
	TotalPrice      float64        `json:"total_price"`
	IsFreebie       bool           `json:"is_freebie"`
	PaymentStatus   PaymentStatus  `gorm:"size:20" json:"payment_status"`
	ShippingStatus  ShippingStatus `gorm:"size:20" json:"shipping_status"`
	PaymentMethod   string         `gorm:"size:30" json:"payment_method"`
	ReferenceNumber string         `gorm:"size:60" json:"reference_number"`
	AmountPaid      float64        `json:"amount_paid"`
	UsedVIPTicket   bool           `gorm:"column:used_vip_ticket" json:"used_vip_ticket"`
	// StockReturned blocks a second stock return when an order bounces
	// between RTS and Cancelled, or is cancelled and then deleted.
	StockReturned bool       `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	Logs          []OrderLog `gorm:"foreignKey:OrderID" json:"logs"`
}

// OrderLog - one field change on an order. Structured on purpose: the old
// dashboard packed these into delimited strings and parsed them back with
// a regex, which broke whenever a value contained the delimiter.
type OrderLog struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	OrderID  uint      `gorm:"index" json:"order_id"`
	Field    string    `gorm:"size:20" json:"field"` // Status, Paid, Shipping, Ref
	OldValue string    `json:"old_value"`
	NewValue string    `json:"new_value"`
	LoggedAt time.Time `json:"logged_at"`
}

// LiveSession - one time-boxed selling event (a livestream).
type LiveSession struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	TotalSales  float64   `json:"total_sales"`
	TotalOrders int       `json:"total_orders"`
	IsOpen      bool      `json:"is_open"`
	CreatedAt   time.Time `json:"created_at"`
}

// Transaction - accounting ledger entry (money leaving the business).
type Transaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"size:20" json:"type"` // Expense, Withdrawal, Loan
	Amount    float64   `json:"amount"`
	Wallet    string    `gorm:"size:30" json:"wallet"`
	Category  string    `gorm:"size:50" json:"category"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// Category - user-defined grouping for products and expenses.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:50" json:"name"`
}

// Setting - single-row store configuration.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StoreName string    `json:"store_name"`
	Currency  string    `gorm:"size:10" json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Device - an access-control record for a browser/terminal that wants to
// use the dashboard. Independent of business data.
type Device struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	DeviceID   string       `gorm:"uniqueIndex;size:64" json:"device_id"`
	Status     DeviceStatus `gorm:"size:20" json:"status"`
	Label      string       `json:"label"`
	UserAgent  string       `json:"user_agent"`
	LastSeenAt time.Time    `json:"last_seen_at"`
	CreatedAt  time.Time    `json:"created_at"`
}

// OutboxEntry - a committed local mutation waiting to be mirrored to the
// remote table store. Rows are written in the same transaction as the
// mutation and flushed by a background worker, so a mirror outage never
// loses a write and never blocks the till.
type OutboxEntry struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Collection string     `gorm:"size:30;index" json:"collection"`
	Op         string     `gorm:"size:10" json:"op"` // upsert, delete
	RecordID   string     `gorm:"size:64" json:"record_id"`
	Payload    string     `gorm:"type:text" json:"payload"`
	Attempts   int        `json:"attempts"`
	SentAt     *time.Time `json:"sent_at"`
	CreatedAt  time.Time  `json:"created_at"`
}
