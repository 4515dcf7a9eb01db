package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartRepository keeps in-progress carts in Redis so they survive reloads
// and are visible from any terminal the cashier moves to. Carts expire on
// their own once a stream is abandoned.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{client: client, ttl: ttl}
}

func (r *CartRepository) key(cashierID, sessionID uint) string {
	return fmt.Sprintf("cart:cashier:%d:session:%d", cashierID, sessionID)
}

// Get returns the cart, or nil when the cashier has none for this session.
func (r *CartRepository) Get(ctx context.Context, cashierID, sessionID uint) (*Cart, error) {
	data, err := r.client.Get(ctx, r.key(cashierID, sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *CartRepository) Save(ctx context.Context, cart *Cart) error {
	cart.UpdatedAt = time.Now()
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(cart.CashierID, cart.SessionID), data, r.ttl).Err()
}

func (r *CartRepository) Delete(ctx context.Context, cashierID, sessionID uint) error {
	return r.client.Del(ctx, r.key(cashierID, sessionID)).Err()
}
