package handlers

import (
	"errors"
	"net/http"

	"balepos/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handler) GetTransactions(c *gin.Context) {
	txs, err := h.store.ListTransactions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}
	c.JSON(http.StatusOK, txs)
}

type CreateTransactionRequest struct {
	Type     string  `json:"type" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Wallet   string  `json:"wallet" binding:"required"`
	Category string  `json:"category"`
	Note     string  `json:"note"`
}

func (h *Handler) AddTransaction(c *gin.Context) {
	var input CreateTransactionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	t := models.Transaction{
		Type:     input.Type,
		Amount:   input.Amount,
		Wallet:   input.Wallet,
		Category: input.Category,
		Note:     input.Note,
	}
	if err := h.store.CreateTransaction(c.Request.Context(), &t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) UpdateTransaction(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	t, err := h.store.UpdateTransaction(c.Request.Context(), id, updateData)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update transaction"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTransaction(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteTransaction(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

func (h *Handler) GetSettings(c *gin.Context) {
	setting, err := h.store.GetSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		return
	}
	c.JSON(http.StatusOK, setting)
}

// GetSyncStatus backs the settings screen's mirror indicator: how many
// committed mutations still wait in the outbox.
func (h *Handler) GetSyncStatus(c *gin.Context) {
	pending, err := h.store.PendingOutbox(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read outbox"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	setting, err := h.store.UpdateSettings(c.Request.Context(), updateData)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}
	c.JSON(http.StatusOK, setting)
}
