package entity

import "time"

// NewsItem is one headline pulled from a feed. The canonical URL is the
// global dedup key: two feeds reporting the same article collapse into one
// row, with non-key fields taken from the last write.
type NewsItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	URL            string    `gorm:"column:url;unique;not null" json:"url"`
	Headline       string    `gorm:"not null" json:"headline"`
	Source         string    `json:"source"`
	PublishedAt    time.Time `gorm:"not null" json:"published_at"`
	Symbol         *string   `json:"symbol,omitempty"`
	SentimentScore *float64  `json:"sentiment_score,omitempty"`
	Excerpt        string    `gorm:"type:text" json:"excerpt,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the NewsItem model.
func (NewsItem) TableName() string {
	return "news"
}
