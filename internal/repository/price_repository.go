package repository

import (
	"context"

	"github.com/shab2022/Investing-Assistant/internal/dto"
	"github.com/shab2022/Investing-Assistant/internal/entity"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PriceRepository defines the interface for daily price records.
type PriceRepository interface {
	BulkUpsert(ctx context.Context, records []entity.PriceRecord) error
	Get(ctx context.Context, param dto.GetPricesParam) ([]entity.PriceRecord, error)
}

// NewPriceRepository creates a new instance of PriceRepository.
func NewPriceRepository(db *gorm.DB) PriceRepository {
	return &priceRepository{db: db}
}

type priceRepository struct {
	db *gorm.DB
}

// BulkUpsert writes all records keyed by (symbol, date); an existing row for
// the same key takes the new price (last write wins).
func (r *priceRepository) BulkUpsert(ctx context.Context, records []entity.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
	}).Create(&records).Error
}

func (r *priceRepository) Get(ctx context.Context, param dto.GetPricesParam) ([]entity.PriceRecord, error) {
	var records []entity.PriceRecord
	if err := r.db.WithContext(ctx).
		Where("symbol IN ? AND date = ?", param.Symbols, datatypes.Date(param.Date)).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
