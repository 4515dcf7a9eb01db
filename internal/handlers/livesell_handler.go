package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"balepos/internal/checkout"
	"balepos/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// The live-sell flow. Every route is scoped to one session and the cart
// belongs to the authenticated cashier, so two terminals on different
// streams never collide.

// loadCart fetches the cashier's cart for this session, creating an empty
// one when none is saved yet.
func (h *Handler) loadCart(c *gin.Context, sessionID uint) (*checkout.Cart, bool) {
	cart, err := h.carts.Get(c.Request.Context(), cashierID(c), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return nil, false
	}
	if cart == nil {
		cart = &checkout.Cart{CashierID: cashierID(c), SessionID: sessionID, DiscountType: checkout.DiscountNone}
	}
	return cart, true
}

func (h *Handler) saveCart(c *gin.Context, cart *checkout.Cart) bool {
	if err := h.carts.Save(c.Request.Context(), cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save cart"})
		return false
	}
	return true
}

// cartResponse is the cart plus its derived totals, so the till UI never
// recomputes money on its own.
func cartResponse(cart *checkout.Cart) gin.H {
	return gin.H{
		"cart":     cart,
		"subtotal": cart.Subtotal(),
		"discount": cart.DiscountAmount(),
		"total":    cart.Total(),
	}
}

func (h *Handler) GetCart(c *gin.Context) {
	sessionID, ok := sessionParam(c, "session_id")
	if !ok {
		return
	}
	cart, ok := h.loadCart(c, sessionID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

type AddLineRequest struct {
	BaleID    uint    `json:"bale_id" binding:"required"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	IsFreebie bool    `json:"is_freebie"`
}

// --- POST: Add a price tier to the cart ---
// The stock guard counts what is already in this cart against the bale's
// capacity, so the seller hears "out of stock" before the commit, not at it.
func (h *Handler) AddToCart(c *gin.Context) {
	sessionID, ok := sessionParam(c, "session_id")
	if !ok {
		return
	}
	var input AddLineRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	cart, ok := h.loadCart(c, sessionID)
	if !ok {
		return
	}

	avail, err := h.store.BaleAvailability(c.Request.Context(), input.BaleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bale not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check bale stock"})
		return
	}

	line := checkout.Line{
		BaleID:    input.BaleID,
		BaleName:  avail.BaleName,
		Price:     input.Price,
		Quantity:  input.Quantity,
		IsFreebie: input.IsFreebie,
	}
	if err := cart.Add(line, avail); err != nil {
		var oos *checkout.OutOfStockError
		if errors.As(err, &oos) {
			c.JSON(http.StatusConflict, gin.H{"error": oos.Error(), "out_of_stock": oos})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.saveCart(c, cart) {
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

func (h *Handler) RemoveCartLine(c *gin.Context) {
	sessionID, ok := sessionParam(c, "session_id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid line index"})
		return
	}

	cart, ok := h.loadCart(c, sessionID)
	if !ok {
		return
	}
	cart.RemoveLine(index)
	if !h.saveCart(c, cart) {
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

type CartCustomerRequest struct {
	Username     string `json:"username" binding:"required"`
	UseVIPTicket bool   `json:"use_vip_ticket"`
}

func (h *Handler) SetCartCustomer(c *gin.Context) {
	sessionID, ok := sessionParam(c, "session_id")
	if !ok {
		return
	}
	var input CartCustomerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	cart, ok := h.loadCart(c, sessionID)
	if !ok {
		return
	}
	cart.Username = input.Username
	cart.UseVIPTicket = input.UseVIPTicket
	if !h.saveCart(c, cart) {
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

type CartDiscountRequest struct {
	Type  checkout.DiscountType `json:"type" binding:"required"`
	Value float64               `json:"value"`
}

func (h *Handler) SetCartDiscount(c *gin.Context) {
	sessionID, ok := sessionParam(c, "session_id")
	if !ok {
		return
	}
	var input CartDiscountRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	cart, ok := h.loadCart(c, sessionID)
	if !ok {
		return
	}
	if err := cart.SetDiscount(input.Type, input.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.saveCart(c, cart) {
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

func (h *Handler) ClearCart(c *gin.Context) {
	sessionID, ok := sessionParam(c, "session_id")
	if !ok {
		return
	}
	if err := h.carts.Delete(c.Request.Context(), cashierID(c), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

type CheckoutRequest struct {
	TenderedAmount *float64 `json:"tendered_amount"`
	PaymentMethod  string   `json:"payment_method"`
	Reference      string   `json:"reference_number"`
}

// --- POST: Commit the cart ---
// Everything happens in one database transaction in the store. On success
// the Redis cart is dropped; on any failure it survives untouched so the
// cashier can fix the problem and retry.
func (h *Handler) Checkout(c *gin.Context) {
	sessionID, ok := sessionParam(c, "session_id")
	if !ok {
		return
	}
	var input CheckoutRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	cart, ok := h.loadCart(c, sessionID)
	if !ok {
		return
	}

	result, err := h.store.Checkout(c.Request.Context(), cart, store.CheckoutOptions{
		TenderedAmount: input.TenderedAmount,
		PaymentMethod:  input.PaymentMethod,
		Reference:      input.Reference,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrNoUsername):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, checkout.ErrBlacklisted):
			c.JSON(http.StatusForbidden, gin.H{"error": "This customer is blacklisted"})
		case errors.Is(err, checkout.ErrNoVIPTickets):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Customer has no VIP tickets left"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
		}
		return
	}

	if err := h.carts.Delete(c.Request.Context(), cashierID(c), sessionID); err != nil {
		// The orders are committed; a stale cart is an annoyance, not a loss.
		h.log.Warn("cart cleanup after checkout failed")
	}
	c.JSON(http.StatusCreated, result)
}

// --- POST: Pull a customer's committed orders back into the cart ---
// Used when the customer changes their mind mid-stream. The store unwinds
// the rows (stock and ticket come back) and hands us a cart to re-edit.
func (h *Handler) EditCustomerOrder(c *gin.Context) {
	sessionID, ok := sessionParam(c, "session_id")
	if !ok {
		return
	}
	username := c.Param("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	cart, err := h.store.EditCustomerOrder(c.Request.Context(), sessionID, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No orders for that customer in this session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unwind orders"})
		return
	}

	cart.CashierID = cashierID(c)
	if !h.saveCart(c, cart) {
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}
