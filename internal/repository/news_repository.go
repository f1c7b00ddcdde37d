package repository

import (
	"context"

	"github.com/shab2022/Investing-Assistant/internal/dto"
	"github.com/shab2022/Investing-Assistant/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewsRepository defines the interface for stored news items.
type NewsRepository interface {
	Upsert(ctx context.Context, item *entity.NewsItem) error
	FindForDigest(ctx context.Context, param dto.FindNewsParam) ([]entity.NewsItem, error)
}

// NewNewsRepository creates a new instance of NewsRepository.
func NewNewsRepository(db *gorm.DB) NewsRepository {
	return &newsRepository{db: db}
}

type newsRepository struct {
	db *gorm.DB
}

// Upsert writes the item keyed by its canonical URL. A second report of the
// same article from another feed updates the non-key fields in place rather
// than creating a duplicate row.
func (r *newsRepository) Upsert(ctx context.Context, item *entity.NewsItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"headline", "source", "published_at", "symbol", "sentiment_score", "excerpt", "updated_at"}),
	}, clause.Returning{}).Create(item).Error
}

// FindForDigest returns scored news matched to the given symbols and
// published on or after the boundary, best sentiment first.
func (r *newsRepository) FindForDigest(ctx context.Context, param dto.FindNewsParam) ([]entity.NewsItem, error) {
	var items []entity.NewsItem
	if err := r.db.WithContext(ctx).
		Where("symbol IN ? AND published_at >= ?", param.Symbols, param.PublishedSince).
		Order("sentiment_score DESC NULLS LAST").
		Limit(param.Limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
