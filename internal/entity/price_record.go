package entity

import (
	"time"

	"gorm.io/datatypes"
)

// PriceRecord is one daily close price observation, unique per (symbol, date).
// Re-ingestion for the same key overwrites the price (last write wins).
type PriceRecord struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Symbol    string         `gorm:"uniqueIndex:idx_prices_symbol_date;not null" json:"symbol"`
	Date      datatypes.Date `gorm:"uniqueIndex:idx_prices_symbol_date;not null" json:"date"`
	Price     float64        `gorm:"not null" json:"price"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the PriceRecord model.
func (PriceRecord) TableName() string {
	return "prices_daily"
}
