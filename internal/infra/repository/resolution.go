package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/cardfeed/internal/domain"
	"github.com/totegamma/cardfeed/internal/infra/database/models"
	"github.com/totegamma/cardfeed/internal/usecase"
)

type ResolutionRepository struct {
	db *gorm.DB
}

func NewResolutionRepository(db *gorm.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

func (r *ResolutionRepository) Resolve(ctx context.Context, kind domain.ResourceKind, uri string) (*string, error) {
	var mapping models.ResolutionMapping
	err := r.db.WithContext(ctx).
		Where("kind = ? AND uri = ?", string(kind), uri).
		Take(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mapping.LocalID, nil
}

func (r *ResolutionRepository) Store(ctx context.Context, kind domain.ResourceKind, uri, localID string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "uri"}},
		DoUpdates: clause.Assignments(map[string]any{"local_id": localID}),
	}).Create(&models.ResolutionMapping{
		Kind:    string(kind),
		URI:     uri,
		LocalID: localID,
	}).Error
}

func (r *ResolutionRepository) Remove(ctx context.Context, kind domain.ResourceKind, uri string) error {
	return r.db.WithContext(ctx).
		Delete(&models.ResolutionMapping{}, "kind = ? AND uri = ?", string(kind), uri).Error
}

var _ usecase.ResolutionRepository = (*ResolutionRepository)(nil)
