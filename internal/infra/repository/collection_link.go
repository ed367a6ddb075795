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

type CollectionLinkRepository struct {
	db *gorm.DB
}

func NewCollectionLinkRepository(db *gorm.DB) *CollectionLinkRepository {
	return &CollectionLinkRepository{db: db}
}

func (r *CollectionLinkRepository) FindByID(ctx context.Context, id string) (*domain.CollectionLink, error) {
	var link models.CollectionLink
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "collection link"}
		}
		return nil, err
	}

	return &domain.CollectionLink{
		ID:              link.ID,
		CollectionID:    link.CollectionID,
		CardID:          link.CardID,
		AddedBy:         link.AddedBy,
		AddedAt:         link.AddedAt,
		PublishedRecord: toPublishedRecord(link.PublishedURI, link.PublishedCID),
	}, nil
}

func (r *CollectionLinkRepository) Save(ctx context.Context, link domain.CollectionLink) error {
	uri, cid := fromPublishedRecord(link.PublishedRecord)
	model := models.CollectionLink{
		ID:           link.ID,
		CollectionID: link.CollectionID,
		CardID:       link.CardID,
		AddedBy:      link.AddedBy,
		AddedAt:      link.AddedAt,
		PublishedURI: uri,
		PublishedCID: cid,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"collection_id", "card_id", "added_by", "published_uri", "published_cid"}),
	}).Create(&model).Error
}

func (r *CollectionLinkRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.CollectionLink{}, "id = ?", id).Error
}

var _ usecase.CollectionLinkRepository = (*CollectionLinkRepository)(nil)
