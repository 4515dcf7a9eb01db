package store

import (
	"context"
	"strings"
	"time"

	"balepos/internal/auditlog"
	"balepos/internal/models"
	"balepos/internal/orders"

	"gorm.io/gorm"
)

// ListSessionOrders returns the raw per-line rows for a session, logs
// preloaded, oldest first. SessionID 0 is the OFF_LIVE pseudo-session.
func (s *Store) ListSessionOrders(ctx context.Context, sessionID uint) ([]models.Order, error) {
	var rows []models.Order
	err := s.db.WithContext(ctx).
		Preload("Logs").
		Where("session_id = ?", sessionID).
		Order("id").
		Find(&rows).Error
	return rows, err
}

// SessionGroups returns the consolidated per-customer aggregates the
// Orders view renders and edits.
func (s *Store) SessionGroups(ctx context.Context, sessionID uint) ([]orders.Group, error) {
	rows, err := s.ListSessionOrders(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return orders.Consolidate(rows), nil
}

// GroupUpdate is the aggregate-level edit the Orders view saves back.
type GroupUpdate struct {
	PaymentStatus  models.PaymentStatus  `json:"payment_status" binding:"required"`
	AmountPaid     float64               `json:"amount_paid"`
	ShippingStatus models.ShippingStatus `json:"shipping_status" binding:"required"`
	PaymentMethod  string                `json:"payment_method"`
	Reference      string                `json:"reference_number"`
}

// UpdateGroup propagates a group edit to every constituent order row:
// payment settlement per the distribution rules, shipping/method/reference
// verbatim, one audit entry per changed field on every row. Stock goes
// back on the rack when shipping first enters Cancelled or RTS.
func (s *Store) UpdateGroup(ctx context.Context, sessionID uint, username string, upd GroupUpdate) error {
	return s.tx(func(tx *gorm.DB, changes *[]Change) error {
		var rows []models.Order
		err := tx.WithContext(ctx).Clauses(lockForUpdate()).
			Where("session_id = ? AND LOWER(username) = ?", sessionID, strings.ToLower(username)).
			Order("id").
			Find(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return gorm.ErrRecordNotFound
		}

		settlements := orders.Settle(rows, upd.PaymentStatus, upd.AmountPaid)
		now := time.Now().Truncate(time.Second)
		affectedBales := map[uint]bool{}

		for i := range rows {
			o := &rows[i]
			set := settlements[i]

			diff := auditlog.Diff(
				string(o.PaymentStatus), string(set.Status),
				o.AmountPaid, set.AmountPaid,
				string(o.ShippingStatus), string(upd.ShippingStatus),
				o.ReferenceNumber, upd.Reference,
			)

			if shippingReturnsStock(o.ShippingStatus, upd.ShippingStatus) {
				if err := s.returnStock(tx, changes, o); err != nil {
					return err
				}
				baleID, err := baleOfProduct(tx, o.ProductID)
				if err != nil {
					return err
				}
				affectedBales[baleID] = true
			} else if o.ShippingStatus != upd.ShippingStatus {
				// Any shipping move can change the bale's sold count.
				baleID, err := baleOfProduct(tx, o.ProductID)
				if err != nil {
					return err
				}
				affectedBales[baleID] = true
			}

			o.PaymentStatus = set.Status
			o.AmountPaid = set.AmountPaid
			o.ShippingStatus = upd.ShippingStatus
			o.PaymentMethod = upd.PaymentMethod
			o.ReferenceNumber = upd.Reference
			if err := tx.Save(o).Error; err != nil {
				return err
			}

			for _, ch := range diff {
				logRow := models.OrderLog{
					OrderID:  o.ID,
					Field:    ch.Field,
					OldValue: ch.Old,
					NewValue: ch.New,
					LoggedAt: now,
				}
				if err := tx.Create(&logRow).Error; err != nil {
					return err
				}
			}

			if err := s.stage(tx, changes, "orders", "upsert", o.ID, o); err != nil {
				return err
			}
		}

		for baleID := range affectedBales {
			if err := s.recomputeBaleStatus(tx, changes, baleID); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteOrder removes one order row outright, returning its stock and any
// consumed VIP ticket. The old dashboard skipped the stock return on this
// path; that was a leak, not a feature.
func (s *Store) DeleteOrder(ctx context.Context, orderID uint) error {
	return s.tx(func(tx *gorm.DB, changes *[]Change) error {
		var o models.Order
		if err := tx.WithContext(ctx).Clauses(lockForUpdate()).First(&o, orderID).Error; err != nil {
			return err
		}

		if err := s.returnStock(tx, changes, &o); err != nil {
			return err
		}
		if err := s.returnVIPTicket(tx, changes, &o); err != nil {
			return err
		}

		baleID, err := baleOfProduct(tx, o.ProductID)
		if err != nil {
			return err
		}

		if err := tx.Where("order_id = ?", o.ID).Delete(&models.OrderLog{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&o).Error; err != nil {
			return err
		}
		if err := s.stage(tx, changes, "orders", "delete", o.ID, nil); err != nil {
			return err
		}

		return s.recomputeBaleStatus(tx, changes, baleID)
	})
}

// shippingReturnsStock reports whether this transition puts items back on
// the rack: entering Cancelled/RTS from a state that still held them.
func shippingReturnsStock(from, to models.ShippingStatus) bool {
	wasOut := from == models.ShippingCancelled || from == models.ShippingRTS
	goesOut := to == models.ShippingCancelled || to == models.ShippingRTS
	return goesOut && !wasOut
}

// returnStock increments the product's stock for a non-freebie order that
// has not already had its stock returned. Safe to call on any path; the
// StockReturned flag makes it idempotent per order.
func (s *Store) returnStock(tx *gorm.DB, changes *[]Change, o *models.Order) error {
	if o.StockReturned || o.IsFreebie {
		return nil
	}
	var p models.Product
	if err := tx.Clauses(lockForUpdate()).First(&p, o.ProductID).Error; err != nil {
		return err
	}
	p.Stock += o.Quantity
	if err := tx.Save(&p).Error; err != nil {
		return err
	}
	o.StockReturned = true
	if err := tx.Model(o).Update("stock_returned", true).Error; err != nil {
		return err
	}
	return s.stage(tx, changes, "products", "upsert", p.ID, &p)
}

// returnVIPTicket gives the ticket back for the one order row that carried
// the checkout's ticket flag.
func (s *Store) returnVIPTicket(tx *gorm.DB, changes *[]Change, o *models.Order) error {
	if !o.UsedVIPTicket {
		return nil
	}
	var c models.Customer
	if err := tx.Clauses(lockForUpdate()).First(&c, o.CustomerID).Error; err != nil {
		return err
	}
	c.VIPTickets++
	if err := tx.Save(&c).Error; err != nil {
		return err
	}
	// The flag comes off so a repeated delete/edit can never return twice.
	o.UsedVIPTicket = false
	if err := tx.Model(o).Update("used_vip_ticket", false).Error; err != nil {
		return err
	}
	return s.stage(tx, changes, "customers", "upsert", c.ID, &c)
}

func baleOfProduct(tx *gorm.DB, productID uint) (uint, error) {
	var p models.Product
	if err := tx.Select("id", "bale_id").First(&p, productID).Error; err != nil {
		return 0, err
	}
	return p.BaleID, nil
}
