package cardfeed

import (
	"errors"
	"testing"
)

func TestParseATURI(t *testing.T) {
	uri, err := ParseATURI("at://did:example:abc/app.kind.card/rkey1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if uri.Authority != "did:example:abc" || uri.Collection != "app.kind.card" || uri.RecordKey != "rkey1" {
		t.Fatalf("unexpected parts %+v", uri)
	}
	if uri.String() != "at://did:example:abc/app.kind.card/rkey1" {
		t.Fatalf("unexpected canonical form %s", uri.String())
	}
}

func TestParseATURIInvalid(t *testing.T) {
	inputs := []string{
		"",
		"cc://did:example:abc/app.kind.card/rkey1",
		"at://did:example:abc/app.kind.card",
		"at://did:example:abc/app.kind.card/rkey1/extra",
		"at://did:example:abc//rkey1",
		"at://alice.example.com/app.kind.card/rkey1",
		"at://did:example:/app.kind.card/rkey1",
		"at://did:example:abc/notansid/rkey1",
		"at://did:example:abc/app.kind.card/bad rkey",
		"at://did:example:abc/app.kind.card/..",
	}

	for _, in := range inputs {
		_, err := ParseATURI(in)
		if err == nil {
			t.Fatalf("expected error for %q", in)
		}
		var formatErr *InvalidFormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("expected InvalidFormatError for %q, got %T", in, err)
		}
	}
}

func TestIsDID(t *testing.T) {
	if !IsDID("did:plc:z72i7hdynmk6r22z27h6tvur") {
		t.Fatalf("expected plc did to be valid")
	}
	if !IsDID("did:web:example.com") {
		t.Fatalf("expected web did to be valid")
	}
	if IsDID("did:PLC:abc") {
		t.Fatalf("expected uppercase method to be rejected")
	}
}

func TestParseATURIWrapsSyntaxError(t *testing.T) {
	_, err := ParseATURI("at://did:example:abc/notansid/rkey1")
	var formatErr *InvalidFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected InvalidFormatError, got %T", err)
	}
	if formatErr.Err == nil {
		t.Fatalf("expected the underlying syntax error to be kept")
	}
}
