package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/cardfeed/internal/infra/database/models"
	"github.com/totegamma/cardfeed/internal/usecase"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Exists(ctx context.Context, uri, cid string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AppliedWrite{}).
		Where("uri = ? AND cid = ?", uri, cid).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *LedgerRepository) Record(ctx context.Context, uri, cid string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		DoNothing: true,
	}).Create(&models.AppliedWrite{
		URI: uri,
		CID: cid,
	}).Error
}

func (r *LedgerRepository) DeleteByURI(ctx context.Context, uri string) ([]string, error) {
	var removed []models.AppliedWrite
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "uri"}, {Name: "cid"}}}).
		Where("uri = ?", uri).
		Delete(&removed).Error
	if err != nil {
		return nil, err
	}

	cids := make([]string, 0, len(removed))
	for _, row := range removed {
		cids = append(cids, row.CID)
	}
	return cids, nil
}

var _ usecase.LedgerRepository = (*LedgerRepository)(nil)
