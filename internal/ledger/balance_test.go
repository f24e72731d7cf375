package ledger

import (
	"testing"

	"github.com/tradesim/settlement/internal/logger"
	"github.com/tradesim/settlement/internal/model"
)

type nopLogger struct{}

func (nopLogger) With(args ...interface{}) logger.Logger      { return nopLogger{} }
func (nopLogger) Debugf(template string, args ...interface{}) {}
func (nopLogger) Infof(template string, args ...interface{})  {}
func (nopLogger) Warnf(template string, args ...interface{})  {}
func (nopLogger) Errorf(template string, args ...interface{}) {}
func (nopLogger) Fatalf(template string, args ...interface{}) {}
func (nopLogger) Sync() error                                 { return nil }

const testFeeRate = 0.0000229

func TestCostBuyHasNoFees(t *testing.T) {
	l := NewBalanceLedger(nil, testFeeRate, nopLogger{})

	cases := []struct {
		quantity, price float64
		gross           float64
	}{
		{10, 50, 500},
		{0.5, 100.10, 50.05},
		{3, 33.333, 100},
	}

	for _, tc := range cases {
		cost := l.Cost(tc.quantity, tc.price, model.SideBuy)
		if cost.Fees != 0 {
			t.Fatalf("buy fees %f, want 0", cost.Fees)
		}
		if cost.GrossValue != tc.gross {
			t.Fatalf("gross %f, want %f", cost.GrossValue, tc.gross)
		}
		if cost.TotalCost != cost.GrossValue {
			t.Fatalf("buy total %f, want gross %f", cost.TotalCost, cost.GrossValue)
		}
	}
}

func TestCostSellFeeIsProportional(t *testing.T) {
	l := NewBalanceLedger(nil, testFeeRate, nopLogger{})

	cost := l.Cost(10, 61, model.SideSell)
	if cost.GrossValue != 610 {
		t.Fatalf("gross %f, want 610", cost.GrossValue)
	}
	if cost.Fees != 0.013969 {
		t.Fatalf("fees %v, want 0.013969", cost.Fees)
	}
	if cost.TotalCost != 610-0.013969 {
		t.Fatalf("total %v, want %v", cost.TotalCost, 610-0.013969)
	}
}

func TestCostIsDeterministic(t *testing.T) {
	l := NewBalanceLedger(nil, testFeeRate, nopLogger{})

	first := l.Cost(7.3, 19.99, model.SideSell)
	for i := 0; i < 100; i++ {
		if got := l.Cost(7.3, 19.99, model.SideSell); got != first {
			t.Fatalf("cost differed across calls: %+v vs %+v", got, first)
		}
	}
}
