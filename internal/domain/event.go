package domain

import (
	"time"

	"github.com/totegamma/cardfeed"
)

// FirehoseEvent is a classified commit notification.
// Record and CID are set iff Type is create or update.
type FirehoseEvent struct {
	URI        cardfeed.ATURI
	Authority  string
	Type       EventType
	CID        *string
	Record     map[string]any
	Seq        int64
	ReceivedAt time.Time
	Rev        string
}

type QueuedEvent struct {
	Event      FirehoseEvent
	ReceivedAt time.Time
}

// Outcome is the result of a projection that did not fail.
// A skipped outcome is a business level no-op, never a pipeline failure.
type Outcome struct {
	Applied bool
	Skipped bool
	Reason  string
}

func Applied() Outcome {
	return Outcome{Applied: true}
}

func Skip(reason string) Outcome {
	return Outcome{Skipped: true, Reason: reason}
}

// Signal announces that a projection changed local state.
type Signal struct {
	Kind ResourceKind `json:"kind"`
	Type EventType    `json:"type"`
	URI  string       `json:"uri"`
	Seq  int64        `json:"seq"`
}
