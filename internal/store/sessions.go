package store

import (
	"context"
	"errors"
	"time"

	"balepos/internal/models"

	"gorm.io/gorm"
)

var ErrSessionClosed = errors.New("store: live session is already closed")

func (s *Store) ListSessions(ctx context.Context) ([]models.LiveSession, error) {
	var sessions []models.LiveSession
	err := s.db.WithContext(ctx).Order("date desc").Find(&sessions).Error
	return sessions, err
}

func (s *Store) GetSession(ctx context.Context, id uint) (*models.LiveSession, error) {
	var sess models.LiveSession
	if err := s.db.WithContext(ctx).First(&sess, id).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

// StartSession opens a new live selling event.
func (s *Store) StartSession(ctx context.Context, name string) (*models.LiveSession, error) {
	sess := models.LiveSession{
		Name:      name,
		Date:      time.Now(),
		IsOpen:    true,
		CreatedAt: time.Now(),
	}
	err := s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Create(&sess).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "sessions", "upsert", sess.ID, &sess)
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// EndSession closes a session and freezes its totals, recomputed from the
// orders actually attributed to it (cancelled and RTS excluded).
func (s *Store) EndSession(ctx context.Context, id uint) (*models.LiveSession, error) {
	var sess models.LiveSession
	err := s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Clauses(lockForUpdate()).First(&sess, id).Error; err != nil {
			return err
		}
		if !sess.IsOpen {
			return ErrSessionClosed
		}

		var agg struct {
			TotalSales  float64
			TotalOrders int64
		}
		err := tx.Model(&models.Order{}).
			Where("session_id = ? AND shipping_status NOT IN ?", id,
				[]models.ShippingStatus{models.ShippingCancelled, models.ShippingRTS}).
			Select("COALESCE(SUM(total_price), 0) AS total_sales, COUNT(*) AS total_orders").
			Scan(&agg).Error
		if err != nil {
			return err
		}

		sess.IsOpen = false
		sess.TotalSales = agg.TotalSales
		sess.TotalOrders = int(agg.TotalOrders)
		if err := tx.Save(&sess).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "sessions", "upsert", sess.ID, &sess)
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}
