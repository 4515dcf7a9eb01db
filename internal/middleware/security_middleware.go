package middleware

import (
	"errors"
	"net/http"
	"strings"

	"balepos/internal/auth"
	"balepos/internal/models"
	"balepos/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware checks if the user has a valid JWT token
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Format: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Store user info in the context for the next handler to use
		c.Set("userID", claims.UserID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// RequireRole is a secondary guard that checks for specific permissions
func RequireRole(allowedRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role != allowedRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// DeviceGate refuses requests from terminals that have not been approved.
// The client sends its generated device ID on every request; pending
// devices get told to keep polling, blocked and unknown ones are shut out.
func DeviceGate(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID := c.GetHeader("X-Device-ID")
		if deviceID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Device-ID header is required"})
			c.Abort()
			return
		}

		device, err := s.GetDevice(c.Request.Context(), deviceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown device. Register it first."})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Device check failed"})
			}
			c.Abort()
			return
		}

		if device.Status != models.DeviceApproved {
			c.JSON(http.StatusForbidden, gin.H{
				"error":  "This device is not approved",
				"status": device.Status,
			})
			c.Abort()
			return
		}

		s.TouchDevice(c.Request.Context(), deviceID)
		c.Set("deviceID", deviceID)
		c.Next()
	}
}
