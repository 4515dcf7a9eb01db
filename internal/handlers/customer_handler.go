package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handler) GetCustomers(c *gin.Context) {
	customers, err := h.store.ListCustomers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}
	c.JSON(http.StatusOK, customers)
}

// UpdateCustomer flips the flags the dashboard edits: VIP, blacklist.
// Aggregates are computed, not stored, so they cannot be edited here.
func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	delete(updateData, "total_spent")
	delete(updateData, "order_count")

	cust, err := h.store.UpdateCustomer(c.Request.Context(), id, updateData)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}
	c.JSON(http.StatusOK, cust)
}

type GrantTicketsRequest struct {
	Count int `json:"count" binding:"required,gt=0"`
}

// --- POST: Grant VIP tickets ---
func (h *Handler) GrantVIPTickets(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input GrantTicketsRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Count must be a positive number"})
		return
	}

	cust, err := h.store.GrantVIPTickets(c.Request.Context(), id, input.Count)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grant tickets"})
		return
	}
	c.JSON(http.StatusOK, cust)
}
