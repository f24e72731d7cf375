package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tradesim/settlement/internal/logger"
	"github.com/tradesim/settlement/internal/model"
)

const (
	_queryHoldingQuantity = "SELECT quantity FROM holdings WHERE portfolio_id = $1 AND instrument_id = $2"
	_queryHoldings        = "SELECT * FROM holdings WHERE portfolio_id = $1 ORDER BY instrument_id"

	_upsertHolding = `INSERT INTO holdings (
							portfolio_id,
							instrument_id,
							quantity,
							avg_cost,
							updated_at
						) VALUES ($1,$2,$3,$4,$5)
						ON CONFLICT (portfolio_id, instrument_id)
						DO UPDATE SET
							avg_cost = (holdings.quantity * holdings.avg_cost + EXCLUDED.quantity * EXCLUDED.avg_cost)
										/ (holdings.quantity + EXCLUDED.quantity),
							quantity = holdings.quantity + EXCLUDED.quantity,
							updated_at = EXCLUDED.updated_at;`

	_decrementHolding = `UPDATE holdings SET quantity = GREATEST(quantity - $1, 0), updated_at = $2
							WHERE portfolio_id = $3 AND instrument_id = $4
							RETURNING quantity`
	_deleteHolding = "DELETE FROM holdings WHERE portfolio_id = $1 AND instrument_id = $2"
)

// HoldingsLedger tracks per-portfolio, per-instrument quantity and
// average cost basis. It does not validate sufficiency on sells; that
// is the settlement engine's job before it opens the transaction.
type HoldingsLedger struct {
	db      *sqlx.DB
	epsilon float64

	logger logger.Logger
}

func NewHoldingsLedger(db *sqlx.DB, epsilon float64, logger logger.Logger) *HoldingsLedger {
	return &HoldingsLedger{
		db:      db,
		epsilon: epsilon,
		logger:  logger,
	}
}

// ApplyBuy upserts the holding row. On first buy the average cost is
// the fill price; afterwards it is the quantity-weighted average across
// fills, computed in the upsert itself so concurrent settlements see a
// consistent row.
func (l *HoldingsLedger) ApplyBuy(ctx context.Context, ext sqlx.ExtContext, portfolioID, instrumentID string, quantity, price float64) error {
	if _, err := ext.ExecContext(ctx, _upsertHolding, portfolioID, instrumentID, quantity, price, time.Now()); err != nil {
		return fmt.Errorf("%w: can't upsert holding %s/%s", err, portfolioID, instrumentID)
	}
	return nil
}

// ApplySell decrements the holding and deletes the row outright once
// the remainder dips to the epsilon, so no zero-quantity rows linger.
// The decrement is clamped at zero: a sell validated against a holding
// within the epsilon of the order quantity settles as a full liquidation
// instead of tripping the schema's non-negativity check.
// Average cost is untouched: it describes the remaining shares.
func (l *HoldingsLedger) ApplySell(ctx context.Context, ext sqlx.ExtContext, portfolioID, instrumentID string, quantity float64) error {
	var remaining float64
	row := ext.QueryRowxContext(ctx, _decrementHolding, quantity, time.Now(), portfolioID, instrumentID)
	if err := row.Scan(&remaining); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s/%s", model.ErrHoldingNotFound, portfolioID, instrumentID)
		}
		return fmt.Errorf("%w: can't decrement holding %s/%s", err, portfolioID, instrumentID)
	}

	if remaining <= l.epsilon {
		if _, err := ext.ExecContext(ctx, _deleteHolding, portfolioID, instrumentID); err != nil {
			return fmt.Errorf("%w: can't delete emptied holding %s/%s", err, portfolioID, instrumentID)
		}
	}
	return nil
}

// Quantity returns the held quantity, zero when no row exists.
func (l *HoldingsLedger) Quantity(ctx context.Context, portfolioID, instrumentID string) (float64, error) {
	var quantity float64
	if err := l.db.GetContext(ctx, &quantity, _queryHoldingQuantity, portfolioID, instrumentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: can't query holding quantity", err)
	}
	return quantity, nil
}

// Holdings lists a portfolio's holdings for reporting.
func (l *HoldingsLedger) Holdings(ctx context.Context, portfolioID string) ([]model.Holding, error) {
	var holdings []model.Holding
	if err := l.db.SelectContext(ctx, &holdings, _queryHoldings, portfolioID); err != nil {
		return nil, fmt.Errorf("%w: can't query holdings", err)
	}
	return holdings, nil
}
