package usecase

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/totegamma/cardfeed"
	"github.com/totegamma/cardfeed/internal/domain"
)

type cardRecord struct {
	Type       string              `json:"type"`
	Content    json.RawMessage     `json:"content"`
	URL        string              `json:"url,omitempty"`
	ParentCard *cardfeed.StrongRef `json:"parentCard,omitempty"`
	CreatedAt  string              `json:"createdAt,omitempty"`
}

type urlContent struct {
	URL      string         `json:"url"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type noteContent struct {
	Text string `json:"text"`
}

type collectionRecord struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AccessType  string `json:"accessType,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

type collectionLinkRecord struct {
	Collection cardfeed.StrongRef `json:"collection"`
	Card       cardfeed.StrongRef `json:"card"`
	AddedBy    string             `json:"addedBy,omitempty"`
	AddedAt    string             `json:"addedAt,omitempty"`
	CreatedAt  string             `json:"createdAt,omitempty"`
}

// decodeRecord re-encodes the generic payload into a typed record.
func decodeRecord(record map[string]any, v any) error {
	b, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// parseTimestamp falls back to the given time on a missing or bad value.
func parseTimestamp(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fallback
	}
	return t
}

func publishedRecord(event domain.FirehoseEvent) *domain.PublishedRecord {
	ref := &domain.PublishedRecord{URI: event.URI.String()}
	if event.CID != nil {
		ref.CID = *event.CID
	}
	return ref
}

var localIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://cardfeed/local-id"))

// localID derives the local entity id from the record it is published as,
// so a create that is applied again lands on the same row.
func localID(kind domain.ResourceKind, uri string) string {
	return uuid.NewSHA1(localIDNamespace, []byte(string(kind)+"|"+uri)).String()
}
