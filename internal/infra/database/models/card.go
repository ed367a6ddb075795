package models

import (
	"time"
)

type Card struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text"`
	Author       string    `json:"author" gorm:"type:text;index"`
	Kind         string    `json:"kind" gorm:"type:text;not null"`
	URL          string    `json:"url" gorm:"type:text"`
	Text         string    `json:"text" gorm:"type:text"`
	Metadata     string    `json:"metadata" gorm:"type:text"`
	ParentCardID *string   `json:"parentCardID" gorm:"type:text;index"`
	PublishedURI *string   `json:"publishedURI" gorm:"type:text;index"`
	PublishedCID *string   `json:"publishedCID" gorm:"type:text"`
	CDate        time.Time `json:"cdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate        time.Time `json:"mdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Collection struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text"`
	Author       string    `json:"author" gorm:"type:text;index"`
	Name         string    `json:"name" gorm:"type:text;not null"`
	Description  string    `json:"description" gorm:"type:text"`
	AccessType   string    `json:"accessType" gorm:"type:text;not null"`
	PublishedURI *string   `json:"publishedURI" gorm:"type:text;index"`
	PublishedCID *string   `json:"publishedCID" gorm:"type:text"`
	CDate        time.Time `json:"cdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate        time.Time `json:"mdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type CollectionLink struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text"`
	CollectionID string    `json:"collectionID" gorm:"type:text;index"`
	CardID       string    `json:"cardID" gorm:"type:text;index"`
	AddedBy      string    `json:"addedBy" gorm:"type:text"`
	AddedAt      time.Time `json:"addedAt" gorm:"type:timestamp with time zone;not null"`
	PublishedURI *string   `json:"publishedURI" gorm:"type:text;index"`
	PublishedCID *string   `json:"publishedCID" gorm:"type:text"`
}
