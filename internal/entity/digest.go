package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Digest is the per-user, per-day portfolio summary. Regenerating for the
// same (user, date) fully overwrites the valuation and summary fields.
type Digest struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"uniqueIndex:idx_digests_user_date;not null" json:"user_id"`
	Date               datatypes.Date `gorm:"uniqueIndex:idx_digests_user_date;not null" json:"date"`
	PortfolioValue     float64        `gorm:"not null" json:"portfolio_value"`
	DailyChange        float64        `gorm:"not null" json:"daily_change"`
	DailyChangePercent float64        `gorm:"not null" json:"daily_change_percent"`
	Summary            string         `gorm:"type:text" json:"summary"`
	Movers             datatypes.JSON `json:"movers,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	Items              []DigestItem   `gorm:"foreignKey:DigestID" json:"items,omitempty"`
}

// TableName specifies the table name for the Digest model.
func (Digest) TableName() string {
	return "digests"
}

// DigestItem links a digest to one news item that informed it, together with
// the symbol the headline was matched against. Unique per (digest, news item);
// re-linking only overwrites the matched symbol.
type DigestItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	DigestID       uint      `gorm:"uniqueIndex:idx_digest_items_digest_news;not null" json:"digest_id"`
	NewsID         uint      `gorm:"uniqueIndex:idx_digest_items_digest_news;not null" json:"news_id"`
	PositionSymbol string    `json:"position_symbol"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the DigestItem model.
func (DigestItem) TableName() string {
	return "digest_items"
}
