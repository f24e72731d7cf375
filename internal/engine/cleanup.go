package engine

import (
	"context"

	"github.com/tradesim/settlement/internal/model"
)

// Cleanup is the garbage-collection pass, run far less often than the
// sweep. It expires past-due limit orders, cancels queued market orders
// older than the staleness window (they indicate a stuck system, not
// intent) and cancels no-expiration limit orders past the max age so
// the pending set stays bounded.
func (e *Engine) Cleanup(ctx context.Context) model.CleanupReport {
	var report model.CleanupReport

	orders, err := e.orders.Pending(ctx)
	if err != nil {
		e.logger.Errorf("%s: can't load pending orders for cleanup", err)
		report.Errors = append(report.Errors, model.SweepError{Err: err.Error()})
		return report
	}

	now := e.now()
	for _, o := range orders {
		switch {
		case o.Type == model.OrderTypeLimit && o.IsExpired(now):
			expired, err := e.orders.MarkExpired(ctx, o.ID)
			if err != nil {
				report.Errors = append(report.Errors, model.SweepError{OrderID: o.ID, Err: err.Error()})
				continue
			}
			if expired {
				report.Expired++
				e.recordActivity(ctx, o.PortfolioID, "order_expired", statusPayload{OrderID: o.ID, Reason: model.ReasonExpired})
			}

		case o.Type == model.OrderTypeMarket && now.Sub(o.CreatedAt) > e.cfg.MarketOrderStaleAfter:
			e.cleanupCancel(ctx, o, model.ReasonStaleMarketOrder, &report)

		case o.Type == model.OrderTypeLimit && o.ExpiresAt == nil && now.Sub(o.CreatedAt) > e.cfg.LimitOrderMaxAge:
			e.cleanupCancel(ctx, o, model.ReasonMaxAgeExceeded, &report)
		}
	}

	return report
}

func (e *Engine) cleanupCancel(ctx context.Context, o model.Order, reason string, report *model.CleanupReport) {
	cancelled, err := e.orders.MarkCancelled(ctx, o.ID, reason)
	if err != nil {
		report.Errors = append(report.Errors, model.SweepError{OrderID: o.ID, Err: err.Error()})
		return
	}
	if !cancelled {
		return
	}
	report.Cancelled++
	e.logger.Infof("cleanup cancelled order %s: %s", o.ID, reason)
	e.recordActivity(ctx, o.PortfolioID, "order_cancelled", statusPayload{OrderID: o.ID, Reason: reason})
}
