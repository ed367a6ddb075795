package domain

import "time"

// PublishedRecord is the network record a local entity was materialized from.
type PublishedRecord struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// Card is a single content item.
type Card struct {
	ID              string           `json:"id"`
	Author          string           `json:"author"`
	Kind            ContentKind      `json:"kind"`
	URL             string           `json:"url,omitempty"`
	Text            string           `json:"text,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
	ParentCardID    *string          `json:"parentCardId,omitempty"`
	PublishedRecord *PublishedRecord `json:"publishedRecord,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Collection groups cards.
type Collection struct {
	ID              string           `json:"id"`
	Author          string           `json:"author"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	AccessType      AccessType       `json:"accessType"`
	PublishedRecord *PublishedRecord `json:"publishedRecord,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// CollectionLink records that a card is a member of a collection.
type CollectionLink struct {
	ID              string           `json:"id"`
	CollectionID    string           `json:"collectionId"`
	CardID          string           `json:"cardId"`
	AddedBy         string           `json:"addedBy"`
	AddedAt         time.Time        `json:"addedAt"`
	PublishedRecord *PublishedRecord `json:"publishedRecord,omitempty"`
}

// AppliedWrite is a ledger entry for a projected (uri, cid) pair.
type AppliedWrite struct {
	URI       string    `json:"uri"`
	CID       string    `json:"cid"`
	AppliedAt time.Time `json:"appliedAt"`
}
