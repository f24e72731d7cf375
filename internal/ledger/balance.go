package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/tradesim/settlement/internal/logger"
	"github.com/tradesim/settlement/internal/model"
	"github.com/tradesim/settlement/internal/tools"
)

const (
	_queryPortfolioCash = "SELECT cash_balance FROM portfolios WHERE id = $1"
	_queryPortfolio     = "SELECT id, starting_cash, cash_balance, created_at FROM portfolios WHERE id = $1"

	// The balance guard is in the statement itself: the debit only lands
	// when the cash is still there at mutation time.
	_debitCash  = "UPDATE portfolios SET cash_balance = cash_balance - $1 WHERE id = $2 AND cash_balance >= $1"
	_creditCash = "UPDATE portfolios SET cash_balance = cash_balance + $1 WHERE id = $2"
)

// BalanceLedger tracks spendable cash per portfolio. All mutation goes
// through Debit/Credit, which take an sqlx.ExtContext so the settlement
// engine can run them inside its transaction.
type BalanceLedger struct {
	db      *sqlx.DB
	feeRate float64

	logger logger.Logger
}

func NewBalanceLedger(db *sqlx.DB, feeRate float64, logger logger.Logger) *BalanceLedger {
	return &BalanceLedger{
		db:      db,
		feeRate: feeRate,
		logger:  logger,
	}
}

// Cost computes the money movement for an order: zero fee on buy, a
// proportional regulatory fee on sell. TotalCost is the cash required
// on buy and the net proceeds on sell. Pure and deterministic.
func (l *BalanceLedger) Cost(quantity, price float64, side model.OrderSide) model.OrderCost {
	gross := tools.Notional(quantity, price)

	cost := model.OrderCost{GrossValue: gross, TotalCost: gross}
	if side == model.SideSell {
		cost.Fees = tools.Fee(gross, l.feeRate)
		cost.TotalCost = gross - cost.Fees
	}
	return cost
}

// ValidateForPurchase checks whether the portfolio can afford the buy.
// It never mutates state. A missing portfolio is a setup bug and
// propagates as model.ErrPortfolioNotFound.
func (l *BalanceLedger) ValidateForPurchase(ctx context.Context, portfolioID string, quantity, price float64) (model.PurchaseCheck, error) {
	var cash float64
	if err := l.db.GetContext(ctx, &cash, _queryPortfolioCash, portfolioID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PurchaseCheck{}, fmt.Errorf("%w: %s", model.ErrPortfolioNotFound, portfolioID)
		}
		return model.PurchaseCheck{}, fmt.Errorf("%w: can't query portfolio cash", err)
	}

	required := l.Cost(quantity, price, model.SideBuy).TotalCost
	check := model.PurchaseCheck{
		AvailableCash: cash,
		RequiredCash:  required,
	}
	if required > cash {
		check.Shortfall = tools.RoundCents(required - cash)
		return check, nil
	}

	check.OK = true
	return check, nil
}

// Debit removes the total buy cost from the portfolio's cash. The
// conditional update re-validates sufficiency at mutation time and
// fails closed, so a race since validation can never drive cash
// negative.
func (l *BalanceLedger) Debit(ctx context.Context, ext sqlx.ExtContext, portfolioID string, quantity, price float64) error {
	total := l.Cost(quantity, price, model.SideBuy).TotalCost

	res, err := ext.ExecContext(ctx, _debitCash, total, portfolioID)
	if err != nil {
		return fmt.Errorf("%w: can't debit cash", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: can't read debit result", err)
	}
	if n > 0 {
		return nil
	}

	// Zero rows means either the portfolio is gone or the recheck failed.
	var cash float64
	if err := sqlx.GetContext(ctx, ext, &cash, _queryPortfolioCash, portfolioID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", model.ErrPortfolioNotFound, portfolioID)
		}
		return fmt.Errorf("%w: can't query portfolio cash", err)
	}
	return fmt.Errorf("%w: need %.2f, have %.2f", model.ErrInsufficientFunds, total, cash)
}

// Credit adds net sale proceeds (gross minus fees) to the portfolio's cash.
func (l *BalanceLedger) Credit(ctx context.Context, ext sqlx.ExtContext, portfolioID string, quantity, price float64) error {
	net := l.Cost(quantity, price, model.SideSell).TotalCost

	res, err := ext.ExecContext(ctx, _creditCash, net, portfolioID)
	if err != nil {
		return fmt.Errorf("%w: can't credit cash", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: can't read credit result", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", model.ErrPortfolioNotFound, portfolioID)
	}
	return nil
}

// CashSummary is the read-only dashboard view of a portfolio's cash.
// TotalSpent is net of sale proceeds, so it can be negative for a
// portfolio trading at a profit.
func (l *BalanceLedger) CashSummary(ctx context.Context, portfolioID string) (model.CashSummary, error) {
	var p model.Portfolio
	if err := l.db.GetContext(ctx, &p, _queryPortfolio, portfolioID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CashSummary{}, fmt.Errorf("%w: %s", model.ErrPortfolioNotFound, portfolioID)
		}
		return model.CashSummary{}, fmt.Errorf("%w: can't query portfolio", err)
	}

	summary := model.CashSummary{
		CurrentCash:  p.CashBalance,
		StartingCash: p.StartingCash,
		TotalSpent:   tools.RoundCents(p.StartingCash - p.CashBalance),
	}
	if p.StartingCash > 0 {
		summary.UtilizationPercent = summary.TotalSpent / p.StartingCash * 100
	}
	return summary, nil
}
