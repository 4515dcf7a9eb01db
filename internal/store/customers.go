package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"balepos/internal/models"

	"gorm.io/gorm"
)

// CustomerView is a customer plus the aggregates the dashboard shows.
// totalSpent and orderCount are recomputed from orders on every read so
// there is exactly one source of truth; cancelled and RTS orders do not
// count, matching how bale revenue is derived.
type CustomerView struct {
	models.Customer
	TotalSpent float64 `json:"total_spent"`
	OrderCount int64   `json:"order_count"`
}

func (s *Store) ListCustomers(ctx context.Context) ([]CustomerView, error) {
	var customers []models.Customer
	if err := s.db.WithContext(ctx).Order("username").Find(&customers).Error; err != nil {
		return nil, err
	}
	out := make([]CustomerView, 0, len(customers))
	for _, c := range customers {
		view, err := s.customerView(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *Store) customerView(ctx context.Context, c models.Customer) (CustomerView, error) {
	view := CustomerView{Customer: c}
	var agg struct {
		TotalSpent float64
		OrderCount int64
	}
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("LOWER(username) = ? AND shipping_status NOT IN ?",
			strings.ToLower(c.Username),
			[]models.ShippingStatus{models.ShippingCancelled, models.ShippingRTS}).
		Select("COALESCE(SUM(total_price), 0) AS total_spent, COUNT(*) AS order_count").
		Scan(&agg).Error
	view.TotalSpent = agg.TotalSpent
	view.OrderCount = agg.OrderCount
	return view, err
}

func (s *Store) GetCustomerByUsername(ctx context.Context, username string) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	c.CreatedAt = time.Now()
	return s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Create(c).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "customers", "upsert", c.ID, c)
	})
}

func (s *Store) UpdateCustomer(ctx context.Context, id uint, fields map[string]any) (*models.Customer, error) {
	var c models.Customer
	err := s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).First(&c, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&c).Updates(fields).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "customers", "upsert", c.ID, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GrantVIPTickets adds tickets to a customer's balance.
func (s *Store) GrantVIPTickets(ctx context.Context, id uint, count int) (*models.Customer, error) {
	var c models.Customer
	err := s.tx(func(tx *gorm.DB, changes *[]Change) error {
		if err := tx.WithContext(ctx).Clauses(lockForUpdate()).First(&c, id).Error; err != nil {
			return err
		}
		c.VIPTickets += count
		c.IsVIP = true
		if err := tx.Save(&c).Error; err != nil {
			return err
		}
		return s.stage(tx, changes, "customers", "upsert", c.ID, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// findOrCreateCustomer resolves a username inside a checkout transaction,
// creating the record on first purchase. Blacklisted customers are refused.
func findOrCreateCustomer(tx *gorm.DB, changes *[]Change, s *Store, username string) (*models.Customer, error) {
	var c models.Customer
	err := tx.Clauses(lockForUpdate()).Where("username = ?", username).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = models.Customer{Username: username, CreatedAt: time.Now()}
		if err := tx.Create(&c).Error; err != nil {
			return nil, err
		}
		if err := s.stage(tx, changes, "customers", "upsert", c.ID, &c); err != nil {
			return nil, err
		}
		return &c, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
