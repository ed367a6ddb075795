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

type CollectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

func (r *CollectionRepository) FindByID(ctx context.Context, id string) (*domain.Collection, error) {
	var collection models.Collection
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "collection"}
		}
		return nil, err
	}

	return &domain.Collection{
		ID:              collection.ID,
		Author:          collection.Author,
		Name:            collection.Name,
		Description:     collection.Description,
		AccessType:      domain.AccessType(collection.AccessType),
		PublishedRecord: toPublishedRecord(collection.PublishedURI, collection.PublishedCID),
		CreatedAt:       collection.CDate,
		UpdatedAt:       collection.MDate,
	}, nil
}

func (r *CollectionRepository) Save(ctx context.Context, collection domain.Collection) error {
	uri, cid := fromPublishedRecord(collection.PublishedRecord)
	model := models.Collection{
		ID:           collection.ID,
		Author:       collection.Author,
		Name:         collection.Name,
		Description:  collection.Description,
		AccessType:   string(collection.AccessType),
		PublishedURI: uri,
		PublishedCID: cid,
		CDate:        collection.CreatedAt,
		MDate:        collection.UpdatedAt,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "access_type", "published_uri", "published_cid", "m_date"}),
	}).Create(&model).Error
}

func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Collection{}, "id = ?", id).Error
}

var _ usecase.CollectionRepository = (*CollectionRepository)(nil)
