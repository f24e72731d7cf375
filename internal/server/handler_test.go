package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
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

type stubService struct {
	report        model.SweepReport
	cancelErr     error
	lastCancelled string
	lastReason    string
}

func (s *stubService) EvaluateAllPending(ctx context.Context) model.SweepReport {
	return s.report
}

func (s *stubService) Cancel(ctx context.Context, orderID, reason string) error {
	s.lastCancelled = orderID
	s.lastReason = reason
	return s.cancelErr
}

func (s *stubService) CashSummary(ctx context.Context, portfolioID string) (model.CashSummary, error) {
	if portfolioID == "missing" {
		return model.CashSummary{}, fmt.Errorf("%w: missing", model.ErrPortfolioNotFound)
	}
	return model.CashSummary{CurrentCash: 500, StartingCash: 1000, TotalSpent: 500, UtilizationPercent: 50}, nil
}

func (s *stubService) Holdings(ctx context.Context, portfolioID string) ([]model.Holding, error) {
	if portfolioID == "empty" {
		return nil, nil
	}
	return []model.Holding{{PortfolioID: portfolioID, InstrumentID: "AAPL", Quantity: 10, AvgCost: 50}}, nil
}

func (s *stubService) Settlements(ctx context.Context, portfolioID string) ([]model.Settlement, error) {
	return []model.Settlement{{ID: "s-1", OrderID: "o-1", PortfolioID: portfolioID, Side: model.SideBuy, Quantity: 10, Price: 50, Total: 500}}, nil
}

func TestSweepEndpoint(t *testing.T) {
	svc := &stubService{report: model.SweepReport{Processed: 3, Executed: 2}}
	h := NewHandler(svc, nopLogger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sweeps", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"processed":3`) {
		t.Fatalf("body %s, want processed count", rec.Body.String())
	}
}

func TestCancelEndpoint(t *testing.T) {
	svc := &stubService{}
	h := NewHandler(svc, nopLogger{})

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"reason":"changed my mind"}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/orders/o-42/cancel", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if svc.lastCancelled != "o-42" || svc.lastReason != "changed my mind" {
		t.Fatalf("cancel called with (%q, %q)", svc.lastCancelled, svc.lastReason)
	}
}

func TestCancelConflictMapsTo409(t *testing.T) {
	svc := &stubService{cancelErr: fmt.Errorf("%w: o-42 is executed", model.ErrOrderNotPending)}
	h := NewHandler(svc, nopLogger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/orders/o-42/cancel", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", rec.Code)
	}
}

func TestCashSummaryEndpoint(t *testing.T) {
	h := NewHandler(&stubService{}, nopLogger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/portfolios/p-1/cash", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"current_cash":500`) {
		t.Fatalf("body %s, want cash summary", rec.Body.String())
	}
}

func TestHoldingsEndpoint(t *testing.T) {
	h := NewHandler(&stubService{}, nopLogger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/portfolios/p-1/holdings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"instrument_id":"AAPL"`) {
		t.Fatalf("body %s, want holdings list", rec.Body.String())
	}
}

func TestHoldingsEndpointEmptyPortfolio(t *testing.T) {
	h := NewHandler(&stubService{}, nopLogger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/portfolios/empty/holdings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body %s, want empty array", body)
	}
}

func TestSettlementsEndpoint(t *testing.T) {
	h := NewHandler(&stubService{}, nopLogger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/portfolios/p-1/settlements", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"order_id":"o-1"`) {
		t.Fatalf("body %s, want settlement history", rec.Body.String())
	}
}

func TestCashSummaryNotFound(t *testing.T) {
	h := NewHandler(&stubService{}, nopLogger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/portfolios/missing/cash", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}
