package domain

// ResourceKind is the local record type an AT-URI collection maps to.
type ResourceKind string

const (
	ResourceKindCard           ResourceKind = "card"
	ResourceKindCollection     ResourceKind = "collection"
	ResourceKindCollectionLink ResourceKind = "collectionLink"
)

type EventType string

const (
	EventTypeCreate EventType = "create"
	EventTypeUpdate EventType = "update"
	EventTypeDelete EventType = "delete"
)

// HasPayload reports whether events of this type carry a record and cid.
func (t EventType) HasPayload() bool {
	return t == EventTypeCreate || t == EventTypeUpdate
}

// ContentKind discriminates the content union of a card record.
type ContentKind string

const (
	ContentKindURL  ContentKind = "URL"
	ContentKindNote ContentKind = "NOTE"
)

type AccessType string

const (
	AccessTypeOpen   AccessType = "OPEN"
	AccessTypeClosed AccessType = "CLOSED"
)
