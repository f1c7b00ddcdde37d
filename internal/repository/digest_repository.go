package repository

import (
	"context"

	"github.com/shab2022/Investing-Assistant/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DigestRepository defines the interface for digests and their news links.
type DigestRepository interface {
	Upsert(ctx context.Context, digest *entity.Digest) error
	UpsertItems(ctx context.Context, items []entity.DigestItem) error
	FindByUserID(ctx context.Context, userID uint) ([]entity.Digest, error)
}

// NewDigestRepository creates a new instance of DigestRepository.
func NewDigestRepository(db *gorm.DB) DigestRepository {
	return &digestRepository{db: db}
}

type digestRepository struct {
	db *gorm.DB
}

// Upsert writes the digest keyed by (user_id, date), fully overwriting the
// valuation and summary fields of any prior digest for that day. The stored
// row's ID is populated on the given digest either way.
func (r *digestRepository) Upsert(ctx context.Context, digest *entity.Digest) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"portfolio_value", "daily_change", "daily_change_percent", "summary", "movers", "updated_at"}),
	}, clause.Returning{}).Create(digest).Error
}

// UpsertItems links news items to a digest keyed by (digest_id, news_id);
// re-linking only overwrites the matched symbol.
func (r *digestRepository) UpsertItems(ctx context.Context, items []entity.DigestItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "digest_id"}, {Name: "news_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"position_symbol"}),
	}).Create(&items).Error
}

func (r *digestRepository) FindByUserID(ctx context.Context, userID uint) ([]entity.Digest, error) {
	var digests []entity.Digest
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&digests).Error; err != nil {
		return nil, err
	}
	return digests, nil
}
