package store

import (
	"context"
	"time"

	"balepos/internal/database"
)

func (s *Store) SalesSummary(ctx context.Context, start, end time.Time) (*database.SalesSummary, error) {
	return database.GetSalesSummary(s.db.WithContext(ctx), start, end)
}

func (s *Store) TopBales(ctx context.Context, limit int) ([]database.TopBale, error) {
	return database.GetTopBales(s.db.WithContext(ctx), limit)
}

func (s *Store) WalletFlows(ctx context.Context) ([]database.WalletFlow, error) {
	return database.GetWalletFlows(s.db.WithContext(ctx))
}
