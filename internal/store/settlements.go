package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/tradesim/settlement/internal/model"
)

const (
	_insertSettlement = `INSERT INTO settlements (
							id,
							order_id,
							portfolio_id,
							instrument_id,
							side,
							quantity,
							price,
							gross_value,
							fees,
							total,
							executed_at
						) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_querySettlementsByPortfolio = "SELECT * FROM settlements WHERE portfolio_id = $1 ORDER BY executed_at DESC"
)

// SettlementStore writes the immutable audit rows. There is no update
// path on purpose.
type SettlementStore struct {
	db *sqlx.DB
}

func NewSettlementStore(db *sqlx.DB) *SettlementStore {
	return &SettlementStore{db: db}
}

func (s *SettlementStore) Insert(ctx context.Context, ext sqlx.ExtContext, settlement model.Settlement) error {
	if _, err := ext.ExecContext(ctx, _insertSettlement,
		settlement.ID,
		settlement.OrderID,
		settlement.PortfolioID,
		settlement.InstrumentID,
		settlement.Side,
		settlement.Quantity,
		settlement.Price,
		settlement.GrossValue,
		settlement.Fees,
		settlement.Total,
		settlement.ExecutedAt,
	); err != nil {
		return fmt.Errorf("%w: can't insert settlement for order %s", err, settlement.OrderID)
	}
	return nil
}

func (s *SettlementStore) ByPortfolio(ctx context.Context, portfolioID string) ([]model.Settlement, error) {
	var settlements []model.Settlement
	if err := s.db.SelectContext(ctx, &settlements, _querySettlementsByPortfolio, portfolioID); err != nil {
		return nil, fmt.Errorf("%w: can't query settlements", err)
	}
	return settlements, nil
}
