package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tradesim/settlement/internal/config"
	"github.com/tradesim/settlement/internal/logger"
	"github.com/tradesim/settlement/internal/model"
)

// Collaborator contracts, narrowed to exactly what the engine calls so
// tests can substitute doubles.
type (
	OrderStore interface {
		Pending(ctx context.Context) ([]model.Order, error)
		Get(ctx context.Context, id string) (model.Order, error)
		MarkExecuted(ctx context.Context, ext sqlx.ExtContext, id string, price float64, at time.Time) (bool, error)
		MarkCancelled(ctx context.Context, id, reason string) (bool, error)
		MarkExpired(ctx context.Context, id string) (bool, error)
	}

	SettlementStore interface {
		Insert(ctx context.Context, ext sqlx.ExtContext, settlement model.Settlement) error
		ByPortfolio(ctx context.Context, portfolioID string) ([]model.Settlement, error)
	}

	BalanceLedger interface {
		Cost(quantity, price float64, side model.OrderSide) model.OrderCost
		ValidateForPurchase(ctx context.Context, portfolioID string, quantity, price float64) (model.PurchaseCheck, error)
		Debit(ctx context.Context, ext sqlx.ExtContext, portfolioID string, quantity, price float64) error
		Credit(ctx context.Context, ext sqlx.ExtContext, portfolioID string, quantity, price float64) error
		CashSummary(ctx context.Context, portfolioID string) (model.CashSummary, error)
	}

	HoldingsLedger interface {
		ApplyBuy(ctx context.Context, ext sqlx.ExtContext, portfolioID, instrumentID string, quantity, price float64) error
		ApplySell(ctx context.Context, ext sqlx.ExtContext, portfolioID, instrumentID string, quantity float64) error
		Quantity(ctx context.Context, portfolioID, instrumentID string) (float64, error)
		Holdings(ctx context.Context, portfolioID string) ([]model.Holding, error)
	}

	MarketOracle interface {
		CurrentCondition(ctx context.Context) model.MarketCondition
	}

	QuoteProvider interface {
		GetQuote(ctx context.Context, instrumentID string) (model.Quote, error)
	}

	ActivitySink interface {
		Record(ctx context.Context, portfolioID, eventKind, payload string) error
	}

	TxRunner interface {
		WithinTx(ctx context.Context, fn func(ext sqlx.ExtContext) error) error
	}
)

// Engine decides whether a pending order can execute and, if so,
// settles it atomically against cash and holdings. It is the only
// writer allowed to move an order to executed.
type Engine struct {
	cfg    config.EngineConfig
	logger logger.Logger

	tx          TxRunner
	orders      OrderStore
	settlements SettlementStore
	balance     BalanceLedger
	holdings    HoldingsLedger
	market      MarketOracle
	quotes      QuoteProvider
	activity    ActivitySink

	now func() time.Time
}

func NewEngine(
	cfg config.EngineConfig,
	tx TxRunner,
	orders OrderStore,
	settlements SettlementStore,
	balance BalanceLedger,
	holdings HoldingsLedger,
	market MarketOracle,
	quotes QuoteProvider,
	activity ActivitySink,
	logger logger.Logger,
) *Engine {
	return &Engine{
		cfg:         cfg,
		tx:          tx,
		orders:      orders,
		settlements: settlements,
		balance:     balance,
		holdings:    holdings,
		market:      market,
		quotes:      quotes,
		activity:    activity,
		logger:      logger,
		now:         time.Now,
	}
}

// EvaluateAllPending is one sweep: queued market orders drain first
// when the market permits execution, then every pending limit order is
// evaluated regardless of market state. A single order's failure never
// stops the sweep.
func (e *Engine) EvaluateAllPending(ctx context.Context) model.SweepReport {
	var report model.SweepReport

	orders, err := e.orders.Pending(ctx)
	if err != nil {
		e.logger.Errorf("%s: can't load pending orders", err)
		report.Errors = append(report.Errors, model.SweepError{Err: err.Error()})
		return report
	}

	condition := e.market.CurrentCondition(ctx)

	for _, o := range orders {
		if o.Type != model.OrderTypeMarket {
			continue
		}
		if !condition.CanExecuteMarketOrders {
			continue // stays queued until the market reopens
		}
		report.Processed++
		e.evaluateMarketOrder(ctx, o, &report)
	}

	for _, o := range orders {
		if o.Type != model.OrderTypeLimit {
			continue
		}
		report.Processed++
		e.evaluateLimitOrder(ctx, o, &report)
	}

	return report
}

// evaluateLimitOrder: expiration strictly first, then a price sample,
// then the trigger check. A quote failure is a soft error; the order is
// retried on the next sweep.
func (e *Engine) evaluateLimitOrder(ctx context.Context, o model.Order, report *model.SweepReport) {
	if o.IsExpired(e.now()) {
		e.expire(ctx, o, report)
		return
	}

	quote, err := e.quotes.GetQuote(ctx, o.InstrumentID)
	if err != nil {
		e.logger.Warnf("%s: can't quote %s for order %s", err, o.InstrumentID, o.ID)
		report.Errors = append(report.Errors, model.SweepError{OrderID: o.ID, Err: err.Error()})
		return
	}

	if !o.LimitTriggered(quote.Price) {
		return
	}

	e.execute(ctx, o, quote.Price, report)
}

// evaluateMarketOrder executes unconditionally at the sampled price;
// market availability was already checked by the sweep.
func (e *Engine) evaluateMarketOrder(ctx context.Context, o model.Order, report *model.SweepReport) {
	quote, err := e.quotes.GetQuote(ctx, o.InstrumentID)
	if err != nil {
		e.logger.Warnf("%s: can't quote %s for order %s", err, o.InstrumentID, o.ID)
		report.Errors = append(report.Errors, model.SweepError{OrderID: o.ID, Err: err.Error()})
		return
	}

	e.execute(ctx, o, quote.Price, report)
}

// execute re-validates sufficiency at the current price and settles.
// Insufficient cash or shares cancels the order with a stored reason so
// it cannot sit pending forever while unexecutable.
func (e *Engine) execute(ctx context.Context, o model.Order, price float64, report *model.SweepReport) {
	switch o.Side {
	case model.SideBuy:
		check, err := e.balance.ValidateForPurchase(ctx, o.PortfolioID, o.Quantity, price)
		if err != nil {
			e.logger.Errorf("%s: can't validate purchase for order %s", err, o.ID)
			report.Errors = append(report.Errors, model.SweepError{OrderID: o.ID, Err: err.Error()})
			return
		}
		if !check.OK {
			e.cancel(ctx, o, model.ReasonInsufficientFunds, report)
			return
		}
	case model.SideSell:
		held, err := e.holdings.Quantity(ctx, o.PortfolioID, o.InstrumentID)
		if err != nil {
			e.logger.Errorf("%s: can't check holdings for order %s", err, o.ID)
			report.Errors = append(report.Errors, model.SweepError{OrderID: o.ID, Err: err.Error()})
			return
		}
		if held+e.cfg.HoldingEpsilon < o.Quantity {
			e.cancel(ctx, o, model.ReasonInsufficientHoldings, report)
			return
		}
	}

	settlement, err := e.settle(ctx, o, price)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotPending) {
			// A concurrent evaluator already handled this order.
			return
		}
		e.logger.Errorf("%s: can't settle order %s, left pending", err, o.ID)
		report.Errors = append(report.Errors, model.SweepError{OrderID: o.ID, Err: err.Error()})
		return
	}

	report.Executed++
	e.recordActivity(ctx, o.PortfolioID, "order_executed", executedPayload{
		OrderID:      o.ID,
		InstrumentID: o.InstrumentID,
		Side:         o.Side,
		Quantity:     o.Quantity,
		Price:        settlement.Price,
		Total:        settlement.Total,
	})
}

// settle is the single atomic path to executed: within one transaction
// the order is conditionally flipped from pending, the audit row is
// written and both ledgers are mutated. Any failure rolls the whole
// unit back, leaving the order pending for the next sweep.
func (e *Engine) settle(ctx context.Context, o model.Order, price float64) (model.Settlement, error) {
	now := e.now()
	cost := e.balance.Cost(o.Quantity, price, o.Side)
	settlement := model.Settlement{
		ID:           uuid.NewString(),
		OrderID:      o.ID,
		PortfolioID:  o.PortfolioID,
		InstrumentID: o.InstrumentID,
		Side:         o.Side,
		Quantity:     o.Quantity,
		Price:        price,
		GrossValue:   cost.GrossValue,
		Fees:         cost.Fees,
		Total:        cost.TotalCost,
		ExecutedAt:   now,
	}

	err := e.tx.WithinTx(ctx, func(ext sqlx.ExtContext) error {
		executed, err := e.orders.MarkExecuted(ctx, ext, o.ID, price, now)
		if err != nil {
			return err
		}
		if !executed {
			return fmt.Errorf("%w: %s", model.ErrOrderNotPending, o.ID)
		}

		if err := e.settlements.Insert(ctx, ext, settlement); err != nil {
			return err
		}

		switch o.Side {
		case model.SideBuy:
			if err := e.balance.Debit(ctx, ext, o.PortfolioID, o.Quantity, price); err != nil {
				return err
			}
			if err := e.holdings.ApplyBuy(ctx, ext, o.PortfolioID, o.InstrumentID, o.Quantity, price); err != nil {
				return err
			}
		case model.SideSell:
			if err := e.balance.Credit(ctx, ext, o.PortfolioID, o.Quantity, price); err != nil {
				return err
			}
			if err := e.holdings.ApplySell(ctx, ext, o.PortfolioID, o.InstrumentID, o.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Settlement{}, err
	}
	return settlement, nil
}

func (e *Engine) expire(ctx context.Context, o model.Order, report *model.SweepReport) {
	expired, err := e.orders.MarkExpired(ctx, o.ID)
	if err != nil {
		report.Errors = append(report.Errors, model.SweepError{OrderID: o.ID, Err: err.Error()})
		return
	}
	if !expired {
		return
	}
	report.Expired++
	e.recordActivity(ctx, o.PortfolioID, "order_expired", statusPayload{OrderID: o.ID, Reason: model.ReasonExpired})
}

func (e *Engine) cancel(ctx context.Context, o model.Order, reason string, report *model.SweepReport) {
	cancelled, err := e.orders.MarkCancelled(ctx, o.ID, reason)
	if err != nil {
		report.Errors = append(report.Errors, model.SweepError{OrderID: o.ID, Err: err.Error()})
		return
	}
	if !cancelled {
		return
	}
	report.Cancelled++
	e.logger.Infof("cancelled order %s: %s", o.ID, reason)
	e.recordActivity(ctx, o.PortfolioID, "order_cancelled", statusPayload{OrderID: o.ID, Reason: reason})
}

// Cancel is the user-facing cancellation path. It only wins while the
// order is still pending; losing a race against execution surfaces as
// ErrOrderNotPending with the observed status, never as corrupt state.
func (e *Engine) Cancel(ctx context.Context, orderID, reason string) error {
	if reason == "" {
		reason = model.ReasonUserCancelled
	}

	cancelled, err := e.orders.MarkCancelled(ctx, orderID, reason)
	if err != nil {
		return err
	}
	if !cancelled {
		o, err := e.orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s is %s", model.ErrOrderNotPending, orderID, o.Status)
	}

	o, err := e.orders.Get(ctx, orderID)
	if err == nil {
		e.recordActivity(ctx, o.PortfolioID, "order_cancelled", statusPayload{OrderID: orderID, Reason: reason})
	}
	return nil
}

// CashSummary exposes the balance ledger's reporting view.
func (e *Engine) CashSummary(ctx context.Context, portfolioID string) (model.CashSummary, error) {
	return e.balance.CashSummary(ctx, portfolioID)
}

// Holdings lists a portfolio's current positions.
func (e *Engine) Holdings(ctx context.Context, portfolioID string) ([]model.Holding, error) {
	return e.holdings.Holdings(ctx, portfolioID)
}

// Settlements lists a portfolio's execution history, newest first.
func (e *Engine) Settlements(ctx context.Context, portfolioID string) ([]model.Settlement, error) {
	return e.settlements.ByPortfolio(ctx, portfolioID)
}

type executedPayload struct {
	OrderID      string          `json:"order_id"`
	InstrumentID string          `json:"instrument_id"`
	Side         model.OrderSide `json:"side"`
	Quantity     float64         `json:"quantity"`
	Price        float64         `json:"price"`
	Total        float64         `json:"total"`
}

type statusPayload struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

// recordActivity is fire-and-forget: a failed notification is logged
// and swallowed, never propagated into settlement outcomes.
func (e *Engine) recordActivity(ctx context.Context, portfolioID, kind string, payload any) {
	body, err := sonic.MarshalString(payload)
	if err != nil {
		e.logger.Warnf("%s: can't marshal %s activity", err, kind)
		return
	}
	if err := e.activity.Record(ctx, portfolioID, kind, body); err != nil {
		e.logger.Warnf("%s: can't record %s activity", err, kind)
	}
}
