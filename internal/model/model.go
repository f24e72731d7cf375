package model

import "time"

type Portfolio struct {
	ID           string    `db:"id"`
	StartingCash float64   `db:"starting_cash"`
	CashBalance  float64   `db:"cash_balance"`
	CreatedAt    time.Time `db:"created_at"`
}

type Holding struct {
	PortfolioID  string    `db:"portfolio_id" json:"portfolio_id"`
	InstrumentID string    `db:"instrument_id" json:"instrument_id"`
	Quantity     float64   `db:"quantity" json:"quantity"`
	AvgCost      float64   `db:"avg_cost" json:"avg_cost"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Settlement is the immutable audit row created by exactly one
// successful execution of an order.
type Settlement struct {
	ID           string    `db:"id" json:"id"`
	OrderID      string    `db:"order_id" json:"order_id"`
	PortfolioID  string    `db:"portfolio_id" json:"portfolio_id"`
	InstrumentID string    `db:"instrument_id" json:"instrument_id"`
	Side         OrderSide `db:"side" json:"side"`
	Quantity     float64   `db:"quantity" json:"quantity"`
	Price        float64   `db:"price" json:"price"`
	GrossValue   float64   `db:"gross_value" json:"gross_value"`
	Fees         float64   `db:"fees" json:"fees"`
	Total        float64   `db:"total" json:"total"`
	ExecutedAt   time.Time `db:"executed_at" json:"executed_at"`
}

// OrderCost breaks an order's notional into its parts. TotalCost is the
// cash required on buy (gross + fees) and the net proceeds on sell
// (gross - fees).
type OrderCost struct {
	GrossValue float64 `json:"gross_value"`
	Fees       float64 `json:"fees"`
	TotalCost  float64 `json:"total_cost"`
}

type PurchaseCheck struct {
	OK            bool    `json:"ok"`
	AvailableCash float64 `json:"available_cash"`
	RequiredCash  float64 `json:"required_cash"`
	Shortfall     float64 `json:"shortfall,omitempty"`
}

type CashSummary struct {
	CurrentCash        float64 `json:"current_cash"`
	StartingCash       float64 `json:"starting_cash"`
	TotalSpent         float64 `json:"total_spent"`
	UtilizationPercent float64 `json:"utilization_percent"`
}
