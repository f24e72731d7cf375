package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/tradesim/settlement/internal/logger"
	"github.com/tradesim/settlement/internal/model"
)

// SettlementService is what the HTTP surface needs from the engine.
type SettlementService interface {
	EvaluateAllPending(ctx context.Context) model.SweepReport
	Cancel(ctx context.Context, orderID, reason string) error
	CashSummary(ctx context.Context, portfolioID string) (model.CashSummary, error)
	Holdings(ctx context.Context, portfolioID string) ([]model.Holding, error)
	Settlements(ctx context.Context, portfolioID string) ([]model.Settlement, error)
}

type handler struct {
	svc    SettlementService
	logger logger.Logger
}

// NewHandler wires the trigger/ops routes. POST /v1/sweeps is the
// external trigger for a full sweep; the portfolio reads and order
// cancellation are the user-facing operations the engine exposes.
func NewHandler(svc SettlementService, logger logger.Logger) http.Handler {
	h := &handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Post("/v1/sweeps", h.sweep)
	r.Post("/v1/orders/{orderID}/cancel", h.cancelOrder)
	r.Get("/v1/portfolios/{portfolioID}/cash", h.cashSummary)
	r.Get("/v1/portfolios/{portfolioID}/holdings", h.holdings)
	r.Get("/v1/portfolios/{portfolioID}/settlements", h.settlements)
	return r
}

func (h *handler) sweep(w http.ResponseWriter, r *http.Request) {
	report := h.svc.EvaluateAllPending(r.Context())
	h.writeJSON(w, http.StatusOK, report)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req cancelRequest
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		if err := sonic.Unmarshal(body, &req); err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}

	if err := h.svc.Cancel(r.Context(), orderID, req.Reason); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) cashSummary(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	summary, err := h.svc.CashSummary(r.Context(), portfolioID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) holdings(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	holdings, err := h.svc.Holdings(r.Context(), portfolioID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if holdings == nil {
		holdings = []model.Holding{}
	}
	h.writeJSON(w, http.StatusOK, holdings)
}

func (h *handler) settlements(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	settlements, err := h.svc.Settlements(r.Context(), portfolioID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if settlements == nil {
		settlements = []model.Settlement{}
	}
	h.writeJSON(w, http.StatusOK, settlements)
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrOrderNotFound), errors.Is(err, model.ErrPortfolioNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrOrderNotPending):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.logger.Errorf("%s: request failed", err)
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		h.logger.Errorf("%s: can't marshal response", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Warnf("%s: can't write response", err)
	}
}
