package repository

import (
	"context"

	"github.com/shab2022/Investing-Assistant/internal/entity"

	"gorm.io/gorm"
)

// PositionRepository defines the read-only interface over portfolio positions.
// Positions are written by the CSV ingestion flow outside this service.
type PositionRepository interface {
	GetByUserID(ctx context.Context, userID uint) ([]entity.Position, error)
}

// NewPositionRepository creates a new instance of PositionRepository.
func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{db: db}
}

type positionRepository struct {
	db *gorm.DB
}

func (r *positionRepository) GetByUserID(ctx context.Context, userID uint) ([]entity.Position, error) {
	var positions []entity.Position
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}
