package market

import (
	"context"
	"testing"
	"time"

	"github.com/tradesim/settlement/internal/config"
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

type stubQuotes struct {
	states map[string]model.MarketState
	errs   map[string]error
}

func (s *stubQuotes) GetQuote(ctx context.Context, instrumentID string) (model.Quote, error) {
	if err := s.errs[instrumentID]; err != nil {
		return model.Quote{}, err
	}
	return model.Quote{InstrumentID: instrumentID, Price: 100, MarketState: s.states[instrumentID]}, nil
}

func newTestOracle(t *testing.T, quotes QuoteProvider, now time.Time) *Oracle {
	t.Helper()

	cfg := config.MarketHoursConfig{}
	if err := cfg.Setup(); err != nil {
		t.Fatalf("setup market hours: %s", err)
	}

	o, err := NewOracle(cfg, []string{"SPY", "QQQ", "DIA"}, quotes, nopLogger{})
	if err != nil {
		t.Fatalf("new oracle: %s", err)
	}
	o.now = func() time.Time { return now }
	return o
}

func nyTime(t *testing.T, year int, month time.Month, day, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %s", err)
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func TestRegularSessionIsTradable(t *testing.T) {
	quotes := &stubQuotes{states: map[string]model.MarketState{"SPY": model.MarketStateRegular}}
	o := newTestOracle(t, quotes, nyTime(t, 2026, time.March, 4, 12, 0))

	cond := o.CurrentCondition(context.Background())
	if !cond.IsOpen || !cond.CanExecuteMarketOrders {
		t.Fatalf("condition %+v, want open and tradable", cond)
	}
}

func TestPreMarketIsNotTradable(t *testing.T) {
	quotes := &stubQuotes{states: map[string]model.MarketState{"SPY": model.MarketStatePre}}
	o := newTestOracle(t, quotes, nyTime(t, 2026, time.March, 4, 8, 0))

	cond := o.CurrentCondition(context.Background())
	if cond.IsOpen || cond.CanExecuteMarketOrders {
		t.Fatalf("condition %+v, want closed for trading during pre-market", cond)
	}
	if cond.NextOpenTime == nil {
		t.Fatalf("next open time should be set when not tradable")
	}
}

func TestFallsBackThroughReferenceInstruments(t *testing.T) {
	quotes := &stubQuotes{
		states: map[string]model.MarketState{"QQQ": model.MarketStateRegular},
		errs:   map[string]error{"SPY": model.ErrQuoteUnavailable},
	}
	o := newTestOracle(t, quotes, nyTime(t, 2026, time.March, 4, 12, 0))

	cond := o.CurrentCondition(context.Background())
	if !cond.CanExecuteMarketOrders {
		t.Fatalf("condition %+v, want tradable from second reference", cond)
	}
}

func TestClockHeuristicNeverFails(t *testing.T) {
	quotes := &stubQuotes{errs: map[string]error{
		"SPY": model.ErrQuoteUnavailable,
		"QQQ": model.ErrQuoteUnavailable,
		"DIA": model.ErrQuoteUnavailable,
	}}

	cases := []struct {
		name string
		now  time.Time
		open bool
	}{
		{"wednesday noon", nyTime(t, 2026, time.March, 4, 12, 0), true},
		{"wednesday before open", nyTime(t, 2026, time.March, 4, 9, 0), false},
		{"wednesday at open", nyTime(t, 2026, time.March, 4, 9, 30), true},
		{"wednesday at close", nyTime(t, 2026, time.March, 4, 16, 0), false},
		{"saturday", nyTime(t, 2026, time.March, 7, 12, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOracle(t, quotes, tc.now)
			cond := o.CurrentCondition(context.Background())
			if cond.IsOpen != tc.open {
				t.Fatalf("IsOpen=%v, want %v", cond.IsOpen, tc.open)
			}
			if !tc.open && cond.NextOpenTime == nil {
				t.Fatalf("closed condition must carry a next open time")
			}
		})
	}
}

func TestNextOpenSkipsWeekend(t *testing.T) {
	quotes := &stubQuotes{errs: map[string]error{
		"SPY": model.ErrQuoteUnavailable,
		"QQQ": model.ErrQuoteUnavailable,
		"DIA": model.ErrQuoteUnavailable,
	}}
	// Friday evening before the spring-forward weekend: the next open is
	// Monday 09:30 wall time, not skewed by the clock change.
	o := newTestOracle(t, quotes, nyTime(t, 2026, time.March, 6, 18, 0))

	cond := o.CurrentCondition(context.Background())
	if cond.NextOpenTime == nil {
		t.Fatalf("next open time should be set")
	}
	want := nyTime(t, 2026, time.March, 9, 9, 30)
	if !cond.NextOpenTime.Equal(want) {
		t.Fatalf("next open %s, want %s", cond.NextOpenTime, want)
	}
}
