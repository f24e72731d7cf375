package market

import (
	"context"
	"fmt"
	"time"

	"github.com/tradesim/settlement/internal/config"
	"github.com/tradesim/settlement/internal/logger"
	"github.com/tradesim/settlement/internal/model"
)

// QuoteProvider is the read-only slice of the quote client the oracle needs.
type QuoteProvider interface {
	GetQuote(ctx context.Context, instrumentID string) (model.Quote, error)
}

// Oracle answers whether the market is open right now. It asks each
// configured reference instrument in turn for its session state and,
// when every quote fails or reports nothing, falls back to a calendar
// heuristic. CurrentCondition never returns an error.
type Oracle struct {
	quotes QuoteProvider
	refs   []string
	logger logger.Logger

	loc        *time.Location
	openClock  time.Duration
	closeClock time.Duration

	now func() time.Time
}

func NewOracle(cfg config.MarketHoursConfig, refs []string, quotes QuoteProvider, logger logger.Logger) (*Oracle, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: can't load market timezone %s", err, cfg.Timezone)
	}

	open, err := clockOffset(cfg.Open)
	if err != nil {
		return nil, err
	}
	closeAt, err := clockOffset(cfg.Close)
	if err != nil {
		return nil, err
	}

	return &Oracle{
		quotes:     quotes,
		refs:       refs,
		logger:     logger,
		loc:        loc,
		openClock:  open,
		closeClock: closeAt,
		now:        time.Now,
	}, nil
}

func clockOffset(v string) (time.Duration, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid market clock %q", err, v)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func (o *Oracle) CurrentCondition(ctx context.Context) model.MarketCondition {
	for _, ref := range o.refs {
		q, err := o.quotes.GetQuote(ctx, ref)
		if err != nil {
			o.logger.Warnf("%s: can't get reference quote %s", err, ref)
			continue
		}
		if q.MarketState == model.MarketStateUnknown {
			continue
		}
		return o.conditionFromState(q.MarketState)
	}

	o.logger.Warnf("no reference instrument reported a market state, using clock heuristic")
	return o.clockCondition(o.now())
}

func (o *Oracle) conditionFromState(state model.MarketState) model.MarketCondition {
	if state == model.MarketStateRegular {
		return model.MarketCondition{IsOpen: true, CanExecuteMarketOrders: true}
	}
	// Pre- and post-market sessions exist but do not permit execution.
	next := o.nextOpen(o.now())
	return model.MarketCondition{NextOpenTime: &next}
}

// clockCondition is the last-resort heuristic: weekdays between the
// configured open and close clocks in the exchange timezone.
func (o *Oracle) clockCondition(now time.Time) model.MarketCondition {
	local := now.In(o.loc)
	if isTradingDay(local) && !local.Before(o.clockAt(local, o.openClock)) && local.Before(o.clockAt(local, o.closeClock)) {
		return model.MarketCondition{IsOpen: true, CanExecuteMarketOrders: true}
	}
	next := o.nextOpen(now)
	return model.MarketCondition{NextOpenTime: &next}
}

// nextOpen walks forward calendar day by calendar day and anchors the
// open clock to each day's wall time, so a DST change between now and
// the next trading day cannot shift the result.
func (o *Oracle) nextOpen(now time.Time) time.Time {
	local := now.In(o.loc)
	for day := local; ; day = day.AddDate(0, 0, 1) {
		candidate := o.clockAt(day, o.openClock)
		if candidate.After(local) && isTradingDay(candidate) {
			return candidate
		}
	}
}

// clockAt places a clock offset on day's calendar date as wall time in
// the exchange timezone.
func (o *Oracle) clockAt(day time.Time, clock time.Duration) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		int(clock/time.Hour), int(clock%time.Hour/time.Minute), 0, 0, o.loc)
}

func isTradingDay(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}
