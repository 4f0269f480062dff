package models

import "errors"

var (
	ErrInvalidCoinID       = errors.New("invalid coin ID")
	ErrInvalidSymbol       = errors.New("invalid symbol")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidTimeframe    = errors.New("invalid chart timeframe")
	ErrCoinNotFound        = errors.New("coin not found")
	ErrInvalidFearGreed    = errors.New("invalid fear and greed response")
	ErrInvalidAlertID      = errors.New("invalid alert ID")
	ErrInvalidDecisionID   = errors.New("invalid decision ID")
	ErrInsufficientHistory = errors.New("insufficient price history")
)
