package handlers

import (
	"errors"
	"net/http"

	"balepos/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Device access control. Register and status-poll are public (a terminal
// that cannot get in yet has no token); the approve/block routes are admin.

type RegisterDeviceRequest struct {
	DeviceID string `json:"device_id"`
	Label    string `json:"label"`
}

func (h *Handler) RegisterDevice(c *gin.Context) {
	var input RegisterDeviceRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	d, err := h.store.RegisterDevice(c.Request.Context(), input.DeviceID, input.Label, c.Request.UserAgent())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register device"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"device_id": d.DeviceID, "status": d.Status})
}

// DeviceStatus is what a pending terminal polls while it waits for the
// owner to approve it from an already-trusted device.
func (h *Handler) DeviceStatus(c *gin.Context) {
	deviceID := c.Param("device_id")
	d, err := h.store.GetDevice(c.Request.Context(), deviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown device"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch device"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"device_id": d.DeviceID, "status": d.Status})
}

func (h *Handler) GetDevices(c *gin.Context) {
	devices, err := h.store.ListDevices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch devices"})
		return
	}
	c.JSON(http.StatusOK, devices)
}

type DeviceStatusRequest struct {
	Status models.DeviceStatus `json:"status" binding:"required"`
}

func (h *Handler) SetDeviceStatus(c *gin.Context) {
	deviceID := c.Param("device_id")
	var input DeviceStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if input.Status != models.DeviceApproved && input.Status != models.DeviceBlocked {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be approved or blocked"})
		return
	}

	d, err := h.store.SetDeviceStatus(c.Request.Context(), deviceID, input.Status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown device"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update device"})
		return
	}
	c.JSON(http.StatusOK, d)
}
