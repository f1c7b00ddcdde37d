package entity

import "time"

// Position is a user's holding in a single symbol. Positions are written by
// the CSV ingestion flow outside this service and are read-only here.
type Position struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex:idx_positions_user_symbol;not null" json:"user_id"`
	Symbol       string    `gorm:"uniqueIndex:idx_positions_user_symbol;not null" json:"symbol"`
	Quantity     float64   `gorm:"not null" json:"quantity"`
	AvgCostBasis *float64  `gorm:"column:avg_cost_basis" json:"avg_cost_basis,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Position model.
func (Position) TableName() string {
	return "positions"
}
