package store

import (
	"context"
	"errors"
	"time"

	"balepos/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDevice records a terminal asking for access. A missing device ID
// gets a fresh UUID; re-registering an existing device just bumps its
// last-seen time and returns the current status untouched, so a blocked
// device cannot re-register its way back in.
func (s *Store) RegisterDevice(ctx context.Context, deviceID, label, userAgent string) (*models.Device, error) {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	var d models.Device
	err := s.tx(func(tx *gorm.DB, changes *[]Change) error {
		err := tx.WithContext(ctx).Where("device_id = ?", deviceID).First(&d).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			d = models.Device{
				DeviceID:   deviceID,
				Status:     models.DevicePending,
				Label:      label,
				UserAgent:  userAgent,
				LastSeenAt: time.Now(),
				CreatedAt:  time.Now(),
			}
			if err := tx.Create(&d).Error; err != nil {
				return err
			}
			return s.stage(tx, changes, "devices", "upsert", d.ID, &d)
		}
		if err != nil {
			return err
		}

		d.LastSeenAt = time.Now()
		if err := tx.Save(&d).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "devices", "upsert", d.ID, &d)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	var d models.Device
	if err := s.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) ListDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&devices).Error
	return devices, err
}

// SetDeviceStatus approves or blocks a device.
func (s *Store) SetDeviceStatus(ctx context.Context, deviceID string, status models.DeviceStatus) (*models.Device, error) {
	var d models.Device
	err := s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Where("device_id = ?", deviceID).First(&d).Error; err != nil {
			return err
		}
		d.Status = status
		if err := tx.Save(&d).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "devices", "upsert", d.ID, &d)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// TouchDevice stamps last-seen on each gated request.
func (s *Store) TouchDevice(ctx context.Context, deviceID string) {
	err := s.db.WithContext(ctx).Model(&models.Device{}).
		Where("device_id = ?", deviceID).
		Update("last_seen_at", time.Now()).Error
	if err != nil {
		s.log.Warn("device touch failed", zap.String("device_id", deviceID), zap.Error(err))
	}
}
