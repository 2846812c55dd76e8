// Package entity defines the domain models for the symbollist feature.
package entity

import "time"

// Symbol is one tracked instrument of a market ("stock", "crypto" or "forex").
// The price and history loops poll every active symbol of their market.
type Symbol struct {
	ID        uint      `gorm:"primaryKey"`
	Market    string    `gorm:"size:16;not null;uniqueIndex:symbol_market_code,priority:1"`
	Code      string    `gorm:"size:32;not null;uniqueIndex:symbol_market_code,priority:2"`
	Name      string    `gorm:"size:255;not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
