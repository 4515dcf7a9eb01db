package handlers

import (
	"errors"
	"net/http"

	"balepos/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// --- GET: All bales with derived stats ---
// This is the inventory board: every bale plus sold/remaining/revenue and
// the suggested target price, computed fresh from orders.
func (h *Handler) GetBales(c *gin.Context) {
	overviews, err := h.store.BaleOverviews(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bales"})
		return
	}
	c.JSON(http.StatusOK, overviews)
}

// --- GET: One bale's stats ---
func (h *Handler) GetBaleStats(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	overview, err := h.store.BaleStats(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bale not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute bale stats"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

type CreateBaleRequest struct {
	Name      string            `json:"name" binding:"required"`
	Cost      float64           `json:"cost" binding:"required,gt=0"`
	ItemCount int               `json:"item_count" binding:"required,gt=0"`
	Status    models.BaleStatus `json:"status"`
}

func (h *Handler) AddBale(c *gin.Context) {
	var input CreateBaleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	b := models.Bale{
		Name:      input.Name,
		Cost:      input.Cost,
		ItemCount: input.ItemCount,
		Status:    input.Status,
	}
	if err := h.store.CreateBale(c.Request.Context(), &b); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create bale"})
		return
	}
	c.JSON(http.StatusCreated, b)
}

// --- PUT: Partial update ---
// A map so we only touch what was sent. Setting "status" here is the manual
// override; the next order mutation recomputes it.
func (h *Handler) UpdateBale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	b, err := h.store.UpdateBale(c.Request.Context(), id, updateData)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bale not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update bale"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteBale(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete bale"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bale deleted"})
}
