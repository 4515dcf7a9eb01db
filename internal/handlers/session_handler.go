package handlers

import (
	"errors"
	"net/http"

	"balepos/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handler) GetSessions(c *gin.Context) {
	sessions, err := h.store.ListSessions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

type StartSessionRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) StartSession(c *gin.Context) {
	var input StartSessionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session name is required"})
		return
	}

	sess, err := h.store.StartSession(c.Request.Context(), input.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// --- POST: End a live session ---
// Totals are frozen from the orders attributed to the session.
func (h *Handler) EndSession(c *gin.Context) {
	id, ok := idParam(c, "session_id")
	if !ok {
		return
	}

	sess, err := h.store.EndSession(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case errors.Is(err, store.ErrSessionClosed):
			c.JSON(http.StatusConflict, gin.H{"error": "Session is already closed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end session"})
		}
		return
	}
	c.JSON(http.StatusOK, sess)
}
