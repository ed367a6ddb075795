package usecase

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/totegamma/cardfeed"
	"github.com/totegamma/cardfeed/internal/domain"
)

type Classifier struct {
	now func() time.Time
}

func NewClassifier() *Classifier {
	return &Classifier{now: time.Now}
}

// Classify turns a raw notification into a FirehoseEvent.
// Non-commit notifications are ignored and yield (nil, nil).
func (c *Classifier) Classify(n cardfeed.Notification) (*domain.FirehoseEvent, error) {
	if n.Kind != cardfeed.NotificationKindCommit || n.Commit == nil {
		return nil, nil
	}

	commit := n.Commit
	raw := cardfeed.ComposeATURI(n.Did, commit.Collection, commit.RKey)

	var eventType domain.EventType
	switch commit.Operation {
	case cardfeed.OperationCreate:
		eventType = domain.EventTypeCreate
	case cardfeed.OperationUpdate:
		eventType = domain.EventTypeUpdate
	case cardfeed.OperationDelete:
		eventType = domain.EventTypeDelete
	default:
		return nil, &domain.ParseError{Input: raw, Err: fmt.Errorf("unknown operation %q", commit.Operation)}
	}

	uri, err := cardfeed.ParseATURI(raw)
	if err != nil {
		return nil, &domain.ParseError{Input: raw, Err: err}
	}

	event := domain.FirehoseEvent{
		URI:        uri,
		Authority:  uri.Authority,
		Type:       eventType,
		Seq:        n.TimeUS,
		ReceivedAt: c.now(),
		Rev:        commit.Rev,
	}

	if eventType.HasPayload() {
		if commit.CID == "" {
			return nil, &domain.ParseError{Input: raw, Err: fmt.Errorf("%s without cid", eventType)}
		}
		if len(commit.Record) == 0 {
			return nil, &domain.ParseError{Input: raw, Err: fmt.Errorf("%s without record", eventType)}
		}
		var record map[string]any
		if err := json.Unmarshal(commit.Record, &record); err != nil {
			return nil, &domain.ParseError{Input: raw, Err: err}
		}
		if record == nil {
			return nil, &domain.ParseError{Input: raw, Err: fmt.Errorf("record is not an object")}
		}
		cid := commit.CID
		event.CID = &cid
		event.Record = record
	}

	return &event, nil
}
