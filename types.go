package cardfeed

import (
	"encoding/json"
)

const (
	NotificationKindCommit   = "commit"
	NotificationKindIdentity = "identity"
	NotificationKindAccount  = "account"
	NotificationKindSync     = "sync"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// Notification is a single message of the upstream subscription stream.
type Notification struct {
	Did    string  `json:"did"`
	TimeUS int64   `json:"time_us"`
	Kind   string  `json:"kind"`
	Commit *Commit `json:"commit,omitempty"`
}

type Commit struct {
	Rev        string          `json:"rev"`
	Operation  string          `json:"operation"`
	Collection string          `json:"collection"`
	RKey       string          `json:"rkey"`
	Record     json.RawMessage `json:"record,omitempty"`
	CID        string          `json:"cid,omitempty"`
}

// StrongRef points at a specific version of a record.
type StrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}
