package usecase

import "errors"

var (
	// ErrUserNotFound means the user has not opened an account.
	ErrUserNotFound = errors.New("account not found")
	// ErrAccountExists is returned when opening an account twice.
	ErrAccountExists = errors.New("account already exists")
	// ErrInsufficientBalance means the cash does not cover a buy.
	ErrInsufficientBalance = errors.New("insufficient cash balance")
	// ErrInsufficientHoldings means the holding does not cover a sell.
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	// ErrInvalidTrade covers malformed orders: bad side, non-positive or over-precise quantity, non-positive price.
	ErrInvalidTrade = errors.New("invalid trade")
)
