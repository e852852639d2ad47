package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoArbitrage       = errors.New("no arbitrage at current prices")
	ErrInvalidPair       = errors.New("invalid pair")
	ErrMissingPrice      = errors.New("missing price data")
	ErrInvalidAmount     = errors.New("invalid trade amount")
	ErrWSDisconnect      = errors.New("websocket disconnected")
	ErrLockHeld          = errors.New("lock already held")
)
