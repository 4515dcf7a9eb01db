// Package handlers is the HTTP edge: bind, call the store, translate the
// result. No business rules live here; the store and the domain packages
// own those.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"balepos/internal/checkout"
	"balepos/internal/config"
	"balepos/internal/models"
	"balepos/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	store *store.Store
	carts *checkout.CartRepository
	log   *zap.Logger
	cfg   *config.Config
}

func New(s *store.Store, carts *checkout.CartRepository, log *zap.Logger, cfg *config.Config) *Handler {
	return &Handler{store: s, carts: carts, log: log, cfg: cfg}
}

// idParam reads a numeric :id. Writes the 400 itself so callers just return.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

// sessionParam accepts either a numeric session ID or the OFF_LIVE sentinel,
// which maps to session 0 (manual encoding outside a stream).
func sessionParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	if strings.EqualFold(raw, models.OffLiveSession) {
		return 0, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return 0, false
	}
	return uint(id), true
}

// cashierID is the authenticated user's ID, put there by the auth middleware.
func cashierID(c *gin.Context) uint {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
