// Package domain holds the error taxonomy shared by the marketdata layers.
package domain

import "errors"

var (
	// ErrUnsupportedResolution is returned for a resolution token the catalog does not know.
	ErrUnsupportedResolution = errors.New("unsupported resolution")
	// ErrUnknownAssetClass is returned for an asset class name that is not configured.
	ErrUnknownAssetClass = errors.New("unknown asset class")
	// ErrPriceNotFound means no PriceRecord exists for the symbol yet.
	ErrPriceNotFound = errors.New("price not found")
	// ErrHistoryNotFound means no HistoryDocument exists for the symbol.
	ErrHistoryNotFound = errors.New("history not found")
	// ErrFetchFailure wraps every upstream failure: unreachable, rate limited or malformed.
	ErrFetchFailure = errors.New("fetch failure")
	// ErrStoreWrite wraps a persistence failure that survived the retry budget.
	ErrStoreWrite = errors.New("store write failure")
	// ErrStoreRejected marks a write the store refused for good (constraint or data errors); retrying cannot help.
	ErrStoreRejected = errors.New("store rejected write")
)
