package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument is wrapped by every InvalidDocumentError.
	ErrInvalidDocument = errors.New("flow: invalid workflow document")

	// ErrUnknownNode marks mutations that referenced a node id not on the graph.
	// Canvas treats them as no-ops and only logs this error.
	ErrUnknownNode = errors.New("flow: unknown node")
)

// InvalidDocumentError reports why a workflow document could not be imported.
type InvalidDocumentError struct {
	Field string // document path of the offending field, if any
	Msg   string
	Err   error // underlying decode error, if any
}

func (e *InvalidDocumentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", ErrInvalidDocument.Error(), e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidDocument.Error(), e.Msg)
}

// Unwrap exposes ErrInvalidDocument and the underlying cause to errors.Is and errors.As.
func (e *InvalidDocumentError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidDocument, e.Err}
	}
	return []error{ErrInvalidDocument}
}
