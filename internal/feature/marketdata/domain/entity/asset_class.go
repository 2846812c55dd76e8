// Package entity defines the domain models for the marketdata feature.
package entity

import "strings"

// AssetClass identifies one market namespace. Prices and histories of
// different classes never share keys.
type AssetClass string

const (
	AssetClassStock  AssetClass = "stock"
	AssetClassCrypto AssetClass = "crypto"
	AssetClassForex  AssetClass = "forex"
)

// AssetClasses lists every supported class in a stable order.
var AssetClasses = []AssetClass{AssetClassStock, AssetClassCrypto, AssetClassForex}

// ParseAssetClass accepts the canonical names plus a few common aliases.
func ParseAssetClass(s string) (AssetClass, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stock", "stocks", "equity", "equities":
		return AssetClassStock, true
	case "crypto", "cryptos":
		return AssetClassCrypto, true
	case "forex", "fx":
		return AssetClassForex, true
	}
	return "", false
}

// NormalizeSymbol trims surrounding whitespace and upper-cases a symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
