package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/cardfeed/internal/domain"
	"github.com/totegamma/cardfeed/internal/infra/database/models"
	"github.com/totegamma/cardfeed/internal/usecase"
)

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) FindByID(ctx context.Context, id string) (*domain.Card, error) {
	var card models.Card
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "card"}
		}
		return nil, err
	}

	var metadata map[string]any
	if card.Metadata != "" {
		if err := json.Unmarshal([]byte(card.Metadata), &metadata); err != nil {
			return nil, err
		}
	}

	return &domain.Card{
		ID:              card.ID,
		Author:          card.Author,
		Kind:            domain.ContentKind(card.Kind),
		URL:             card.URL,
		Text:            card.Text,
		Metadata:        metadata,
		ParentCardID:    card.ParentCardID,
		PublishedRecord: toPublishedRecord(card.PublishedURI, card.PublishedCID),
		CreatedAt:       card.CDate,
		UpdatedAt:       card.MDate,
	}, nil
}

func (r *CardRepository) Save(ctx context.Context, card domain.Card) error {
	metadata := ""
	if card.Metadata != nil {
		b, err := json.Marshal(card.Metadata)
		if err != nil {
			return err
		}
		metadata = string(b)
	}

	uri, cid := fromPublishedRecord(card.PublishedRecord)
	model := models.Card{
		ID:           card.ID,
		Author:       card.Author,
		Kind:         string(card.Kind),
		URL:          card.URL,
		Text:         card.Text,
		Metadata:     metadata,
		ParentCardID: card.ParentCardID,
		PublishedURI: uri,
		PublishedCID: cid,
		CDate:        card.CreatedAt,
		MDate:        card.UpdatedAt,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "url", "text", "metadata", "parent_card_id", "published_uri", "published_cid", "m_date"}),
	}).Create(&model).Error
}

func (r *CardRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Card{}, "id = ?", id).Error
}

func toPublishedRecord(uri, cid *string) *domain.PublishedRecord {
	if uri == nil {
		return nil
	}
	ref := &domain.PublishedRecord{URI: *uri}
	if cid != nil {
		ref.CID = *cid
	}
	return ref
}

func fromPublishedRecord(ref *domain.PublishedRecord) (*string, *string) {
	if ref == nil {
		return nil, nil
	}
	uri, cid := ref.URI, ref.CID
	return &uri, &cid
}

var _ usecase.CardRepository = (*CardRepository)(nil)
