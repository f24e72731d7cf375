package model

import "errors"

var (
	ErrPortfolioNotFound    = errors.New("portfolio not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotPending      = errors.New("order is not pending")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrHoldingNotFound      = errors.New("holding not found")
	ErrQuoteUnavailable     = errors.New("quote unavailable")
)
