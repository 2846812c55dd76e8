// Package dto defines data transfer objects for the symbollist HTTP API.
package dto

// SymbolItem represents a symbol in the API response.
// It contains only the public-facing fields needed by clients.
type SymbolItem struct {
	Market string `json:"market"`
	Code   string `json:"code"`
	Name   string `json:"name"`
}
