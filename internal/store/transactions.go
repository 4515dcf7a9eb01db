package store

import (
	"context"
	"time"

	"balepos/internal/models"

	"gorm.io/gorm"
)

func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&txs).Error
	return txs, err
}

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	t.CreatedAt = time.Now()
	return s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Create(t).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "transactions", "upsert", t.ID, t)
	})
}

func (s *Store) UpdateTransaction(ctx context.Context, id uint, fields map[string]any) (*models.Transaction, error) {
	var t models.Transaction
	err := s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).First(&t, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&t).Updates(fields).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "transactions", "upsert", t.ID, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id uint) error {
	return s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Delete(&models.Transaction{}, id).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "transactions", "delete", id, nil)
	})
}

// GetSettings returns the single settings row, creating it on first read.
func (s *Store) GetSettings(ctx context.Context) (*models.Setting, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).FirstOrCreate(&setting, models.Setting{ID: 1}).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (s *Store) UpdateSettings(ctx context.Context, fields map[string]any) (*models.Setting, error) {
	var setting models.Setting
	err := s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).FirstOrCreate(&setting, models.Setting{ID: 1}).Error; err != nil {
			return err
		}
		if err := tx.Model(&setting).Updates(fields).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "settings", "upsert", setting.ID, &setting)
	})
	if err != nil {
		return nil, err
	}
	return &setting, nil
}
