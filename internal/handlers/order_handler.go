package handlers

import (
	"errors"
	"net/http"

	"balepos/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// --- GET: Consolidated orders for a session ---
// One entry per customer, not per line. The session param takes a numeric
// ID or OFF_LIVE for the manual-encoding bucket.
func (h *Handler) GetSessionOrders(c *gin.Context) {
	sessionID, ok := sessionParam(c, "session_id")
	if !ok {
		return
	}
	groups, err := h.store.SessionGroups(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// --- PUT: Edit one customer's group ---
// The edit is aggregate-level (one payment status, one amount paid, one
// shipping status) and fans out to every line underneath.
func (h *Handler) UpdateOrderGroup(c *gin.Context) {
	sessionID, ok := sessionParam(c, "session_id")
	if !ok {
		return
	}
	username := c.Param("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	var upd store.GroupUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := h.store.UpdateGroup(c.Request.Context(), sessionID, username, upd); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No orders for that customer in this session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update orders"})
		return
	}

	groups, err := h.store.SessionGroups(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// --- DELETE: One order line ---
// Stock and any consumed VIP ticket come back with it.
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteOrder(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}
