package store

import (
	"context"
	"strings"
	"time"

	"balepos/internal/bale"
	"balepos/internal/checkout"
	"balepos/internal/models"
	"balepos/internal/orders"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CheckoutOptions carries the per-transaction payment figures entered once
// for the whole cart.
type CheckoutOptions struct {
	// TenderedAmount, when set, is distributed proportionally across the
	// created orders (live-session flow). When nil every order settles in
	// full (the simplified manual flow).
	TenderedAmount *float64
	PaymentMethod  string
	Reference      string
}

// CheckoutResult reports what the commit created.
type CheckoutResult struct {
	Orders   []models.Order  `json:"orders"`
	Customer models.Customer `json:"customer"`
	Total    float64         `json:"total"`
	Discount float64         `json:"discount"`
}

// Checkout commits a cart in one transaction: customer resolution, VIP
// ticket consumption, discount application, synthetic product upsert, one
// order per line, and bale status recompute. Everything rolls back
// together, so a failed guard can never leave a ticket half-consumed.
func (s *Store) Checkout(ctx context.Context, cart *checkout.Cart, opts CheckoutOptions) (*CheckoutResult, error) {
	if len(cart.Lines) == 0 {
		return nil, checkout.ErrEmptyCart
	}
	username := strings.TrimSpace(cart.Username)
	if username == "" {
		return nil, checkout.ErrNoUsername
	}

	var result CheckoutResult
	err := s.tx(func(tx *gorm.DB, changes *[]Change) error {
		customer, err := findOrCreateCustomer(tx, changes, s, username)
		if err != nil {
			return err
		}
		if customer.IsBlacklisted {
			return checkout.ErrBlacklisted
		}

		if cart.UseVIPTicket {
			if customer.VIPTickets <= 0 {
				return checkout.ErrNoVIPTickets
			}
			customer.VIPTickets--
			if err := tx.Save(customer).Error; err != nil {
				return err
			}
			if err := s.stage(tx, changes, "customers", "upsert", customer.ID, customer); err != nil {
				return err
			}
		}

		ratio := cart.DiscountRatio()
		finalTotal := cart.Total()
		now := time.Now()
		affectedBales := map[uint]bool{}
		ticketPending := cart.UseVIPTicket

		// Lines commit in reverse insertion order, same as the original till.
		for i := len(cart.Lines) - 1; i >= 0; i-- {
			line := cart.Lines[i]

			unit := 0.0
			if !line.IsFreebie {
				unit = line.Price * (1 - ratio)
			}
			lineTotal := unit * float64(line.Quantity)

			key := models.KeyFor(line.BaleID, line.Price, line.IsFreebie)
			product, err := upsertLiveProduct(tx, key, line.BaleName, line.Price)
			if err != nil {
				return err
			}
			if !line.IsFreebie {
				product.Stock -= line.Quantity
				if err := tx.Save(product).Error; err != nil {
					return err
				}
			}
			if err := s.stage(tx, changes, "products", "upsert", product.ID, product); err != nil {
				return err
			}

			status, paid := settleLine(line.IsFreebie, lineTotal, finalTotal, opts.TenderedAmount)

			order := models.Order{
				SessionID:       cart.SessionID,
				CustomerID:      customer.ID,
				Username:        customer.Username,
				ProductID:       product.ID,
				Quantity:        line.Quantity,
				TotalPrice:      lineTotal,
				IsFreebie:       line.IsFreebie,
				PaymentStatus:   status,
				ShippingStatus:  models.ShippingPending,
				PaymentMethod:   opts.PaymentMethod,
				ReferenceNumber: opts.Reference,
				AmountPaid:      paid,
				UsedVIPTicket:   ticketPending,
				CreatedAt:       now,
			}
			ticketPending = false // the flag rides on exactly one row

			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			if err := s.stage(tx, changes, "orders", "upsert", order.ID, &order); err != nil {
				return err
			}
			result.Orders = append(result.Orders, order)
			affectedBales[line.BaleID] = true
		}

		for baleID := range affectedBales {
			if err := s.recomputeBaleStatus(tx, changes, baleID); err != nil {
				return err
			}
		}

		result.Customer = *customer
		result.Total = finalTotal
		result.Discount = cart.DiscountAmount()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("checkout committed",
		zap.String("username", username),
		zap.Uint("session_id", cart.SessionID),
		zap.Int("lines", len(result.Orders)),
		zap.Float64("total", result.Total),
	)
	return &result, nil
}

// settleLine derives one created order's payment state. Freebies are Paid
// at zero; without a tendered amount each line settles in full; with one,
// the tender is spread proportionally and each line classified on its own
// share.
func settleLine(freebie bool, lineTotal, finalTotal float64, tendered *float64) (models.PaymentStatus, float64) {
	if freebie {
		return models.PaymentPaid, 0
	}
	if tendered == nil {
		return models.PaymentPaid, lineTotal
	}
	ratio := 0.0
	if finalTotal > 0 {
		ratio = *tendered / finalTotal
	}
	paid := lineTotal * ratio
	return orders.Classify(paid, lineTotal), paid
}

// BaleAvailability snapshots a bale's remaining capacity for the
// add-to-cart guard: item count and the quantity the database already
// counts as sold.
func (s *Store) BaleAvailability(ctx context.Context, baleID uint) (checkout.Availability, error) {
	var b models.Bale
	if err := s.db.WithContext(ctx).First(&b, baleID).Error; err != nil {
		return checkout.Availability{}, err
	}
	rows, err := s.baleOrders(s.db.WithContext(ctx), baleID)
	if err != nil {
		return checkout.Availability{}, err
	}
	stats := bale.Compute(b, rows)
	return checkout.Availability{BaleName: b.Name, ItemCount: b.ItemCount, SoldInDB: stats.SoldCount}, nil
}

// EditCustomerOrder unwinds a customer's session orders back into a cart
// for re-editing: the VIP ticket comes back, stock goes back on the rack,
// the rows are deleted, and the reconstructed cart is returned — all in
// one transaction, so there is no window where the order half-exists.
func (s *Store) EditCustomerOrder(ctx context.Context, sessionID uint, username string) (*checkout.Cart, error) {
	cart := &checkout.Cart{SessionID: sessionID, Username: username, DiscountType: checkout.DiscountNone}

	err := s.tx(func(tx *gorm.DB, changes *[]Change) error {
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

		affectedBales := map[uint]bool{}
		for i := range rows {
			o := &rows[i]
			cart.Username = o.Username

			var p models.Product
			if err := tx.First(&p, o.ProductID).Error; err != nil {
				return err
			}
			var b models.Bale
			if err := tx.First(&b, p.BaleID).Error; err != nil {
				return err
			}
			affectedBales[p.BaleID] = true

			// Unit price backed out of the stored line total.
			unit := 0.0
			if o.Quantity > 0 && !o.IsFreebie {
				unit = o.TotalPrice / float64(o.Quantity)
			}
			mergeLine(cart, checkout.Line{
				BaleID:    p.BaleID,
				BaleName:  b.Name,
				Price:     unit,
				Quantity:  o.Quantity,
				IsFreebie: o.IsFreebie,
			})

			if o.UsedVIPTicket {
				// Returned here, and the cart re-arms the toggle so a
				// re-checkout consumes it again. Exactly one return.
				if err := s.returnVIPTicket(tx, changes, o); err != nil {
					return err
				}
				cart.UseVIPTicket = true
			}
			if err := s.returnStock(tx, changes, o); err != nil {
				return err
			}

			if err := tx.Where("order_id = ?", o.ID).Delete(&models.OrderLog{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(o).Error; err != nil {
				return err
			}
			if err := s.stage(tx, changes, "orders", "delete", o.ID, nil); err != nil {
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
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// mergeLine folds a reconstructed line into the cart, consolidating
// identical (bale, price, freebie) signatures like a normal add.
func mergeLine(cart *checkout.Cart, line checkout.Line) {
	for i := range cart.Lines {
		l := &cart.Lines[i]
		if l.BaleID == line.BaleID && l.Price == line.Price && l.IsFreebie == line.IsFreebie {
			l.Quantity += line.Quantity
			return
		}
	}
	cart.Lines = append(cart.Lines, line)
}
