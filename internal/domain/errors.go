package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ParseError means the event could not be interpreted and is dropped.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid event %s: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError means the payload lacks fields required for its kind.
type ValidationError struct {
	Kind   ResourceKind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s record: %s %s", e.Kind, e.Field, e.Reason)
}

// UnknownResourceKindError means the collection is not in the allow-list.
type UnknownResourceKindError struct {
	Collection string
}

func (e *UnknownResourceKindError) Error() string {
	return fmt.Sprintf("unknown resource kind for collection %q", e.Collection)
}

// DuplicationCheckError means the duplicate check itself could not be answered.
type DuplicationCheckError struct {
	URI string
	Err error
}

func (e *DuplicationCheckError) Error() string {
	return fmt.Sprintf("duplication check failed for %s: %v", e.URI, e.Err)
}

func (e *DuplicationCheckError) Unwrap() error { return e.Err }

// InfrastructureError wraps a local store failure.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

func Infra(op string, err error) error {
	if err == nil {
		return nil
	}
	return &InfrastructureError{Op: op, Err: err}
}
