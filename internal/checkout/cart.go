// Package checkout holds the live-sell cart: price-tier lines accumulated
// while the seller is on stream, the VIP discount toggle, and the totals.
// Carts live in Redis per cashier+session so a page reload (or a second
// terminal) picks up exactly where the stream left off. The commit itself
// runs in internal/store, inside one database transaction.
package checkout

import (
	"errors"
	"fmt"
	"time"
)

type DiscountType string

const (
	DiscountNone       DiscountType = "NONE"
	DiscountFixed      DiscountType = "FIXED"
	DiscountPercentage DiscountType = "PERCENTAGE"
)

var (
	ErrEmptyCart      = errors.New("checkout: cart is empty")
	ErrNoUsername     = errors.New("checkout: customer username is required")
	ErrBlacklisted    = errors.New("checkout: customer is blacklisted")
	ErrNoVIPTickets   = errors.New("checkout: customer has no VIP tickets left")
	ErrInvalidLine    = errors.New("checkout: line needs a bale and a positive quantity")
	ErrOverCap        = errors.New("checkout: discount exceeds its cap")
)

// OutOfStockError carries the figures the seller reads out on stream when a
// bale has nothing left to sell.
type OutOfStockError struct {
	BaleID   uint   `json:"bale_id"`
	BaleName string `json:"bale_name"`
	Sold     int    `json:"sold"`
	Total    int    `json:"total"`
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("checkout: %s is out of stock (%d/%d sold)", e.BaleName, e.Sold, e.Total)
}

// Line is one price tier in the cart. Adding the same (bale, price, freebie)
// again bumps the quantity instead of appending a new line.
type Line struct {
	BaleID    uint    `json:"bale_id"`
	BaleName  string  `json:"bale_name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	IsFreebie bool    `json:"is_freebie"`
}

// Cart is the in-progress transaction for one customer on one session.
type Cart struct {
	CashierID     uint         `json:"cashier_id"`
	SessionID     uint         `json:"session_id"` // 0 = OFF_LIVE manual encoding
	Username      string       `json:"username"`
	Lines         []Line       `json:"lines"`
	DiscountType  DiscountType `json:"discount_type"`
	DiscountValue float64      `json:"discount_value"`
	UseVIPTicket  bool         `json:"use_vip_ticket"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Availability is a bale's capacity snapshot at add-to-cart time: how many
// items the bale came with and how many the database already counts as sold.
type Availability struct {
	BaleName  string
	ItemCount int
	SoldInDB  int
}

// Add puts a line in the cart, or bumps the matching line's quantity. What
// is already in this cart counts against the bale's remaining capacity too.
// Freebies occupy capacity like any other item.
func (c *Cart) Add(line Line, avail Availability) error {
	if line.BaleID == 0 || line.Quantity <= 0 {
		return ErrInvalidLine
	}
	if line.IsFreebie {
		line.Price = 0
	}

	inCart := c.QuantityForBale(line.BaleID)
	remaining := avail.ItemCount - avail.SoldInDB - inCart
	if remaining < line.Quantity {
		return &OutOfStockError{
			BaleID:   line.BaleID,
			BaleName: avail.BaleName,
			Sold:     avail.SoldInDB + inCart,
			Total:    avail.ItemCount,
		}
	}

	for i := range c.Lines {
		l := &c.Lines[i]
		if l.BaleID == line.BaleID && l.Price == line.Price && l.IsFreebie == line.IsFreebie {
			l.Quantity += line.Quantity
			return nil
		}
	}
	c.Lines = append(c.Lines, line)
	return nil
}

// RemoveLine drops the line at index i.
func (c *Cart) RemoveLine(i int) {
	if i < 0 || i >= len(c.Lines) {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// QuantityForBale is how many items of one bale this cart already holds.
func (c *Cart) QuantityForBale(baleID uint) int {
	n := 0
	for _, l := range c.Lines {
		if l.BaleID == baleID {
			n += l.Quantity
		}
	}
	return n
}

// Subtotal is the cart total before any discount. Freebies are zero-priced
// so they never contribute.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, l := range c.Lines {
		if l.IsFreebie {
			continue
		}
		sum += l.Price * float64(l.Quantity)
	}
	return sum
}

// SetDiscount validates and applies the VIP discount toggle. A fixed
// discount is capped at the cart subtotal and a percentage at 100.
func (c *Cart) SetDiscount(t DiscountType, value float64) error {
	switch t {
	case DiscountNone:
		c.DiscountType = DiscountNone
		c.DiscountValue = 0
		return nil
	case DiscountFixed:
		if value < 0 || value > c.Subtotal() {
			return ErrOverCap
		}
	case DiscountPercentage:
		if value < 0 || value > 100 {
			return ErrOverCap
		}
	default:
		return fmt.Errorf("checkout: unknown discount type %q", t)
	}
	c.DiscountType = t
	c.DiscountValue = value
	return nil
}

// DiscountAmount is the money taken off the subtotal.
func (c *Cart) DiscountAmount() float64 {
	sub := c.Subtotal()
	switch c.DiscountType {
	case DiscountFixed:
		if c.DiscountValue > sub {
			return sub
		}
		return c.DiscountValue
	case DiscountPercentage:
		pct := c.DiscountValue
		if pct > 100 {
			pct = 100
		}
		return sub * pct / 100
	}
	return 0
}

// DiscountRatio is the fraction each non-freebie line's price is reduced by
// at commit time.
func (c *Cart) DiscountRatio() float64 {
	sub := c.Subtotal()
	if sub <= 0 {
		return 0
	}
	return c.DiscountAmount() / sub
}

// Total is what the customer owes. Never negative.
func (c *Cart) Total() float64 {
	t := c.Subtotal() - c.DiscountAmount()
	if t < 0 {
		return 0
	}
	return t
}
