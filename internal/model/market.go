package model

import "time"

// MarketState is the trading session reported by the quote provider.
type MarketState string

const (
	MarketStateRegular MarketState = "regular"
	MarketStatePre     MarketState = "pre"
	MarketStatePost    MarketState = "post"
	MarketStateClosed  MarketState = "closed"
	MarketStateUnknown MarketState = ""
)

// ParseMarketState normalizes a provider's session string. Anything
// unrecognized maps to MarketStateUnknown so callers can fall through
// to the next source.
func ParseMarketState(s string) MarketState {
	switch MarketState(s) {
	case MarketStateRegular, MarketStatePre, MarketStatePost, MarketStateClosed:
		return MarketState(s)
	}
	return MarketStateUnknown
}

type Quote struct {
	InstrumentID string      `json:"instrument_id"`
	Price        float64     `json:"price"`
	MarketState  MarketState `json:"market_state"`
	AsOf         time.Time   `json:"as_of"`
}

// MarketCondition is a best-effort answer about the market right now.
// CanExecuteMarketOrders is true only during regular continuous trading;
// pre- and post-market sessions report IsOpen=false for trading purposes.
type MarketCondition struct {
	IsOpen                 bool       `json:"is_open"`
	CanExecuteMarketOrders bool       `json:"can_execute_market_orders"`
	NextOpenTime           *time.Time `json:"next_open_time,omitempty"`
}
