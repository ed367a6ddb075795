package models

import (
	"time"
)

// ResolutionMapping links a network record to the local entity built from it.
type ResolutionMapping struct {
	Kind    string    `json:"kind" gorm:"primaryKey;type:text"`
	URI     string    `json:"uri" gorm:"primaryKey;type:text"`
	LocalID string    `json:"localID" gorm:"type:text;not null;index"`
	CDate   time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// AppliedWrite is insert-only; one row per projected (uri, cid).
type AppliedWrite struct {
	URI       string    `json:"uri" gorm:"primaryKey;type:text"`
	CID       string    `json:"cid" gorm:"primaryKey;type:text"`
	AppliedAt time.Time `json:"appliedAt" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
