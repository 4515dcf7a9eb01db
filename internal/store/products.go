package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"balepos/internal/models"

	"gorm.io/gorm"
)

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).Order("id").Find(&products).Error
	return products, err
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.SKU == "" {
		p.SKU = fmt.Sprintf("SEED-%d-%d", p.BaleID, time.Now().UnixNano())
	}
	p.CreatedAt = time.Now()
	return s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Create(p).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "products", "upsert", p.ID, p)
	})
}

func (s *Store) UpdateProduct(ctx context.Context, id uint, fields map[string]any) (*models.Product, error) {
	var p models.Product
	err := s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).First(&p, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&p).Updates(fields).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "products", "upsert", p.ID, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id uint) error {
	return s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Delete(&models.Product{}, id).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "products", "delete", id, nil)
	})
}

// upsertLiveProduct finds or creates the synthetic product row for one
// live-sell price tier, locked for the caller's stock mutation.
func upsertLiveProduct(tx *gorm.DB, key models.ProductKey, baleName string, price float64) (*models.Product, error) {
	var p models.Product
	err := tx.Clauses(lockForUpdate()).Where("sku = ?", key.SKU()).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	name := fmt.Sprintf("%s @ %.2f", baleName, price)
	if key.Freebie {
		name = baleName + " Freebie"
	}
	p = models.Product{
		SKU:          key.SKU(),
		Name:         name,
		BaleID:       key.BaleID,
		SellingPrice: price,
		IsFreebie:    key.Freebie,
		CreatedAt:    time.Now(),
	}
	if err := tx.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.WithContext(ctx).Order("name").Find(&cats).Error
	return cats, err
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	return s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Create(c).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "categories", "upsert", c.ID, c)
	})
}

func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	return s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Delete(&models.Category{}, id).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "categories", "delete", id, nil)
	})
}
