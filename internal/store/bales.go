package store

import (
	"context"
	"time"

	"balepos/internal/bale"
	"balepos/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BaleOverview is a bale together with its derived lifecycle numbers, the
// shape the inventory view and the AI assistant both read.
type BaleOverview struct {
	models.Bale
	Stats bale.Stats `json:"stats"`
}

func (s *Store) ListBales(ctx context.Context) ([]models.Bale, error) {
	var bales []models.Bale
	err := s.db.WithContext(ctx).Order("id").Find(&bales).Error
	return bales, err
}

func (s *Store) GetBale(ctx context.Context, id uint) (*models.Bale, error) {
	var b models.Bale
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBale(ctx context.Context, b *models.Bale) error {
	if b.Status == "" {
		b.Status = models.BaleOrdered
	}
	b.CreatedAt = time.Now()
	return s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Create(b).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "bales", "upsert", b.ID, b)
	})
}

// UpdateBale applies a partial update. A manually set status sticks until
// the next order mutation recomputes it.
func (s *Store) UpdateBale(ctx context.Context, id uint, fields map[string]any) (*models.Bale, error) {
	var b models.Bale
	err := s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).First(&b, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&b).Updates(fields).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "bales", "upsert", b.ID, &b)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) DeleteBale(ctx context.Context, id uint) error {
	return s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Delete(&models.Bale{}, id).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "bales", "delete", id, nil)
	})
}

// BaleStats derives the lifecycle numbers for one bale from its orders.
func (s *Store) BaleStats(ctx context.Context, id uint) (*BaleOverview, error) {
	var b models.Bale
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	orders, err := s.baleOrders(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return &BaleOverview{Bale: b, Stats: bale.Compute(b, orders)}, nil
}

func (s *Store) BaleOverviews(ctx context.Context) ([]BaleOverview, error) {
	bales, err := s.ListBales(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BaleOverview, 0, len(bales))
	for _, b := range bales {
		orders, err := s.baleOrders(s.db.WithContext(ctx), b.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, BaleOverview{Bale: b, Stats: bale.Compute(b, orders)})
	}
	return out, nil
}

// baleOrders loads every order placed against a bale's products.
func (s *Store) baleOrders(tx *gorm.DB, baleID uint) ([]models.Order, error) {
	var orders []models.Order
	err := tx.
		Joins("JOIN products ON products.id = orders.product_id").
		Where("products.bale_id = ?", baleID).
		Find(&orders).Error
	return orders, err
}

// recomputeBaleStatus re-derives a bale's status after an order mutation
// and persists it when it moved. Runs inside the caller's transaction.
func (s *Store) recomputeBaleStatus(tx *gorm.DB, changes *[]Change, baleID uint) error {
	var b models.Bale
	if err := tx.Clauses(lockForUpdate()).First(&b, baleID).Error; err != nil {
		return err
	}
	orders, err := s.baleOrders(tx, baleID)
	if err != nil {
		return err
	}

	stats := bale.Compute(b, orders)
	next := bale.NextStatus(b.Status, stats.SoldCount, b.ItemCount)
	if next == b.Status {
		return nil
	}

	if err := tx.Model(&b).Update("status", next).Error; err != nil {
		return err
	}
	b.Status = next
	s.log.Info("bale status recomputed",
		zap.Uint("bale_id", b.ID),
		zap.Int("sold", stats.SoldCount),
		zap.Int("item_count", b.ItemCount),
		zap.String("status", string(next)),
	)
	return s.stage(tx, changes, "bales", "upsert", b.ID, &b)
}
