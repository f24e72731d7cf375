package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/tradesim/settlement/internal/config"
	"github.com/tradesim/settlement/internal/logger"
	"github.com/tradesim/settlement/internal/model"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	_quoteURL = "/v1/quotes/{instrument_id}"
)

// Service is the client for the external price-quote provider. Every
// call is rate limited and bounded by the configured timeout; failures
// wrap model.ErrQuoteUnavailable so callers can treat them as soft.
type Service struct {
	c           *resty.Client
	rateLimiter ratelimit.Limiter

	logger logger.Logger
}

func NewService(cfg config.QuotesConfig, logger logger.Logger) *Service {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.Address).
		SetTimeout(cfg.Timeout)

	return &Service{
		c:           client,
		rateLimiter: ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(time.Minute)),
		logger:      logger,
	}
}

type quoteResponse struct {
	InstrumentID string    `json:"instrument_id"`
	Price        float64   `json:"price"`
	MarketState  string    `json:"market_state"`
	AsOf         time.Time `json:"as_of"`
}

type quoteErrorResponse struct {
	Message string `json:"message"`
}

func (s *Service) GetQuote(ctx context.Context, instrumentID string) (model.Quote, error) {
	if instrumentID == "" {
		return model.Quote{}, fmt.Errorf("%w: empty instrument id", model.ErrQuoteUnavailable)
	}

	s.rateLimiter.Take()

	req := s.c.R().
		SetPathParam("instrument_id", instrumentID).
		SetResult(&quoteResponse{}).
		SetError(&quoteErrorResponse{}).
		SetContext(ctx)

	resp, err := req.Get(_quoteURL)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %s: can't request quote for %s", model.ErrQuoteUnavailable, err, instrumentID)
	}
	defer resp.Body.Close()

	s.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if resp.IsError() {
		response := resp.Error().(*quoteErrorResponse)
		return model.Quote{}, fmt.Errorf("%w: %s: quote request error for %s", model.ErrQuoteUnavailable, response.Message, instrumentID)
	}
	if resp.IsSuccess() {
		result := resp.Result().(*quoteResponse)
		if result.Price <= 0 {
			return model.Quote{}, fmt.Errorf("%w: non-positive price for %s", model.ErrQuoteUnavailable, instrumentID)
		}
		return model.Quote{
			InstrumentID: instrumentID,
			Price:        result.Price,
			MarketState:  model.ParseMarketState(result.MarketState),
			AsOf:         result.AsOf,
		}, nil
	}

	return model.Quote{}, fmt.Errorf("%w: unexpected status %s for %s", model.ErrQuoteUnavailable, resp.Status(), instrumentID)
}
