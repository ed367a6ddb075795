package cardfeed

import (
	"fmt"
	"strings"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

const ATURIScheme = "at://"

// InvalidFormatError is returned when a string is not a well formed AT-URI.
type InvalidFormatError struct {
	Input  string
	Reason string
	Err    error
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid at-uri %q: %s", e.Input, e.Reason)
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

// ATURI names a single record: at://<did>/<collection>/<rkey>.
type ATURI struct {
	Authority  string
	Collection string
	RecordKey  string
}

func ParseATURI(raw string) (ATURI, error) {
	if !strings.HasPrefix(raw, ATURIScheme) {
		return ATURI{}, &InvalidFormatError{Input: raw, Reason: "unsupported uri scheme"}
	}

	parts := strings.Split(strings.TrimPrefix(raw, ATURIScheme), "/")
	if len(parts) != 3 {
		return ATURI{}, &InvalidFormatError{Input: raw, Reason: "expected authority, collection and record key"}
	}

	if _, err := syntax.ParseATURI(raw); err != nil {
		return ATURI{}, &InvalidFormatError{Input: raw, Reason: err.Error(), Err: err}
	}

	did, err := syntax.ParseDID(parts[0])
	if err != nil {
		return ATURI{}, &InvalidFormatError{Input: raw, Reason: "authority is not a valid did", Err: err}
	}
	collection, err := syntax.ParseNSID(parts[1])
	if err != nil {
		return ATURI{}, &InvalidFormatError{Input: raw, Reason: "invalid collection", Err: err}
	}
	rkey, err := syntax.ParseRecordKey(parts[2])
	if err != nil {
		return ATURI{}, &InvalidFormatError{Input: raw, Reason: "invalid record key", Err: err}
	}

	return ATURI{
		Authority:  did.String(),
		Collection: collection.String(),
		RecordKey:  rkey.String(),
	}, nil
}

func (u ATURI) String() string {
	return ComposeATURI(u.Authority, u.Collection, u.RecordKey)
}

func ComposeATURI(authority, collection, rkey string) string {
	return ATURIScheme + authority + "/" + collection + "/" + rkey
}

func IsDID(s string) bool {
	_, err := syntax.ParseDID(s)
	return err == nil
}
