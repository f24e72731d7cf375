package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tradesim/settlement/internal/model"
)

const (
	_queryPendingOrders = "SELECT * FROM orders WHERE status = 'pending' ORDER BY created_at ASC"
	_queryOrder         = "SELECT * FROM orders WHERE id = $1"

	// Every terminal transition is gated on the row still being pending.
	// Zero affected rows means another evaluator got there first and the
	// caller must treat the attempt as a no-op.
	_markExecuted = `UPDATE orders SET status = 'executed', executed_price = $1, executed_at = $2, status_reason = NULL
						WHERE id = $3 AND status = 'pending'`
	_markCancelled = `UPDATE orders SET status = 'cancelled', status_reason = $1
						WHERE id = $2 AND status = 'pending'`
	_markExpired = `UPDATE orders SET status = 'expired', status_reason = $1, executed_at = NULL
						WHERE id = $2 AND status = 'pending'`
)

// OrderStore reads and transitions order rows. It never creates orders;
// the intake API owns that.
type OrderStore struct {
	db *sqlx.DB
}

func NewOrderStore(db *sqlx.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Pending returns all pending orders oldest-created first.
func (s *OrderStore) Pending(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := s.db.SelectContext(ctx, &orders, _queryPendingOrders); err != nil {
		return nil, fmt.Errorf("%w: can't query pending orders", err)
	}
	return orders, nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (model.Order, error) {
	var order model.Order
	if err := s.db.GetContext(ctx, &order, _queryOrder, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Order{}, fmt.Errorf("%w: %s", model.ErrOrderNotFound, id)
		}
		return model.Order{}, fmt.Errorf("%w: can't query order", err)
	}
	return order, nil
}

// MarkExecuted flips pending → executed with the fill price. It takes
// an ExtContext because it must run inside the settlement transaction.
// Returns false when the order was no longer pending.
func (s *OrderStore) MarkExecuted(ctx context.Context, ext sqlx.ExtContext, id string, price float64, at time.Time) (bool, error) {
	res, err := ext.ExecContext(ctx, _markExecuted, price, at, id)
	if err != nil {
		return false, fmt.Errorf("%w: can't mark order executed", err)
	}
	return affected(res)
}

func (s *OrderStore) MarkCancelled(ctx context.Context, id, reason string) (bool, error) {
	res, err := s.db.ExecContext(ctx, _markCancelled, reason, id)
	if err != nil {
		return false, fmt.Errorf("%w: can't mark order cancelled", err)
	}
	return affected(res)
}

func (s *OrderStore) MarkExpired(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, _markExpired, model.ReasonExpired, id)
	if err != nil {
		return false, fmt.Errorf("%w: can't mark order expired", err)
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: can't read affected rows", err)
	}
	return n > 0, nil
}
