// Package entity defines the domain models for the symbollist feature.
package entity

import "time"

// Symbol is a tracked base asset such as "BTC". It is quoted against Quote
// ("USDT") on the exchange.
type Symbol struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:20;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null"`
	Quote     string    `gorm:"size:20;not null;default:USDT"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// DefaultSymbols seeds an empty symbols table.
var DefaultSymbols = []Symbol{
	{Code: "BTC", Name: "Bitcoin", Quote: "USDT", IsActive: true, SortKey: 1},
	{Code: "ETH", Name: "Ethereum", Quote: "USDT", IsActive: true, SortKey: 2},
	{Code: "BNB", Name: "BNB", Quote: "USDT", IsActive: true, SortKey: 3},
	{Code: "SOL", Name: "Solana", Quote: "USDT", IsActive: true, SortKey: 4},
	{Code: "XRP", Name: "XRP", Quote: "USDT", IsActive: true, SortKey: 5},
}
