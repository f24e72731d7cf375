package model

import "time"

type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderStatus is the lifecycle state of an order. Terminal states are
// final: no writer may transition an order out of executed, cancelled
// or expired.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusExecuted  OrderStatus = "executed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
)

// Machine-readable status reasons stored alongside terminal transitions.
// The API layer translates these for users.
const (
	ReasonExpired              = "expired"
	ReasonInsufficientFunds    = "insufficient_funds"
	ReasonInsufficientHoldings = "insufficient_holdings"
	ReasonStaleMarketOrder     = "stale_market_order"
	ReasonMaxAgeExceeded       = "max_age_exceeded"
	ReasonUserCancelled        = "user_cancelled"
)

type Order struct {
	ID            string      `db:"id"`
	PortfolioID   string      `db:"portfolio_id"`
	InstrumentID  string      `db:"instrument_id"`
	Side          OrderSide   `db:"side"`
	Type          OrderType   `db:"order_type"`
	Quantity      float64     `db:"quantity"`
	LimitPrice    *float64    `db:"limit_price"`
	Status        OrderStatus `db:"status"`
	StatusReason  *string     `db:"status_reason"`
	CreatedAt     time.Time   `db:"created_at"`
	ExpiresAt     *time.Time  `db:"expires_at"`
	ExecutedPrice *float64    `db:"executed_price"`
	ExecutedAt    *time.Time  `db:"executed_at"`
}

// IsExpired reports whether the order carries an expiration that has
// already passed. Orders without expires_at never expire here; the
// cleanup pass handles their staleness windows.
func (o Order) IsExpired(now time.Time) bool {
	return o.ExpiresAt != nil && now.After(*o.ExpiresAt)
}

// LimitTriggered reports whether the sampled price satisfies the limit
// condition: buy executes at or below the limit, sell at or above it.
// Both bounds are inclusive. Always false for market orders.
func (o Order) LimitTriggered(price float64) bool {
	if o.Type != OrderTypeLimit || o.LimitPrice == nil {
		return false
	}
	switch o.Side {
	case SideBuy:
		return price <= *o.LimitPrice
	case SideSell:
		return price >= *o.LimitPrice
	}
	return false
}
